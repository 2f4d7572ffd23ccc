package pg

var Migrations = migrations
