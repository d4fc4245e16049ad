package cli

var versions = "dbferry version v0.1.0"
