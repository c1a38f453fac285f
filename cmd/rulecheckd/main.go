/*
Rulecheckd starts a RuleCheck server and begins listening for new connections.

Usage:

	rulecheckd [flags]
	rulecheckd [flags] -l [[ADDRESS]:PORT]

Once started, the RuleCheck server will listen for HTTP requests and respond to
them using REST protocol. Clients upload grammars to it and then send batches
of messages to check against them. By default, it will listen on
localhost:8080. This can be changed with the --listen/-l flag (or config via
environment var). The flag argument must be either a full address with port,
such as "192.168.0.2:6001", or just the port preceeded by a colon, such as
":6001".

The flags are:

	-v, --version
		Give the current version of the RuleCheck server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment variable
		RULECHECK_LISTEN_ADDRESS, and if that is not given, will default to
		localhost:8080.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the following:
		inmem, sqlite. inmem has no further params. sqlite needs the path to the
		data director such as sqlite:path/to/db_dir. If not given, will default
		to the value of environment variable RULECHECK_DATABASE. If no DB driver
		is specified or an empty is given, an in-memory database is
		automatically selected.

	-w, --workers N
		Check the messages of each request using N workers unless the request
		asks for a number. Defaults to the number of CPUs.

	--max-messages N
		Reject validation requests with more than N messages. Defaults to
		10000. A negative number removes the limit.

	--max-message-length N
		Reject validation requests containing a message longer than N
		characters. Defaults to 4096. A negative number removes the limit.

Admin login is configured only through the environment so that the password
does not show up in process listings. If RULECHECK_ADMIN_PASSWORD is set,
creating, changing, and deleting grammars requires a bearer token obtained by
sending that password to POST /api/v1/login. RULECHECK_TOKEN_SECRET sets the
key tokens are signed with; it must be at least 32 bytes. If it is not set, a
random key is used and tokens are invalidated whenever the server restarts.
*/
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/rulecheck/internal/version"
	"github.com/dekarrin/rulecheck/server"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "RULECHECK_LISTEN_ADDRESS"
	EnvDB     = "RULECHECK_DATABASE"
	EnvAdmin  = "RULECHECK_ADMIN_PASSWORD"
	EnvSecret = "RULECHECK_TOKEN_SECRET"
)

var (
	flagVersion     = pflag.BoolP("version", "v", false, "Give the current version of RuleCheck server and then exit.")
	flagListen      = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagDB          = pflag.String("db", "", "Use the given DB connection string.")
	flagWorkers     = pflag.IntP("workers", "w", 0, "Number of workers to check each request with. Defaults to the number of CPUs.")
	flagMaxMessages = pflag.Int("max-messages", server.DefaultMaxMessages, "Most messages one request may check. Negative for no limit.")
	flagMaxLength   = pflag.Int("max-message-length", server.DefaultMaxMessageLength, "Most characters in any one checked message. Negative for no limit.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (RuleCheck v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	args := pflag.Args()

	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	// get address info
	port := 0
	addr := ""
	listenAddr := os.Getenv(EnvListen)
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr != "" {
		bindParts := strings.SplitN(listenAddr, ":", 2)
		if len(bindParts) != 2 {
			fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
			os.Exit(1)
		}

		var err error

		addr = bindParts[0]
		port, err = strconv.Atoi(bindParts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%q is not a valid port number.\nDo -h for help.\n", bindParts[1])
			os.Exit(1)
		}
	}

	// assemble a server config
	cfg := server.Config{
		Workers:          *flagWorkers,
		MaxMessages:      *flagMaxMessages,
		MaxMessageLength: *flagMaxLength,
	}

	if adminPass := os.Getenv(EnvAdmin); adminPass != "" {
		cfg.AdminPassword = adminPass
		if secret := os.Getenv(EnvSecret); secret != "" {
			cfg.TokenSecret = []byte(secret)
		}
	}

	// look at db connection string
	dbConnStr := os.Getenv(EnvDB)
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr != "" {
		db, err := server.ParseDBConnString(dbConnStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Not a valid DB string: %s\nDo -h for help.\n", err.Error())
			os.Exit(1)
		}
		cfg.DB = db
	}

	// configuration complete, initialize the server
	rcs, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG Server initialized")

	// okay, now actually launch it
	log.Printf("INFO  Starting RuleCheck server %s...", version.ServerCurrent)
	rcs.ServeForever(addr, port)
}
