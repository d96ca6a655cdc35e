package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/pgplan/pgplan"
	"github.com/pgplan/pgplan/database"
	"github.com/pgplan/pgplan/database/file"
	"github.com/pgplan/pgplan/database/postgres"
	"github.com/pgplan/pgplan/util"
)

// version and revision are set via -ldflags
var version = "dev"
var revision = "HEAD"

func parseOptions(args []string) (database.Config, string, string, *pgplan.Options) {
	var opts struct {
		User        string `short:"U" long:"user" description:"PostgreSQL user name" value-name:"user_name" default:"postgres"`
		Password    string `short:"W" long:"password" description:"PostgreSQL user password, overridden by $PGPASSWORD" value-name:"password"`
		Host        string `short:"h" long:"host" description:"Host or socket directory to connect to the PostgreSQL server" value-name:"host_name" default:"127.0.0.1"`
		Port        uint   `short:"p" long:"port" description:"Port used for the connection" value-name:"port_num" default:"5432"`
		SslMode     string `long:"ssl-mode" description:"libpq sslmode for the connection" value-name:"ssl_mode"`
		Prompt      bool   `long:"password-prompt" description:"Force PostgreSQL user password prompt"`
		Config      string `long:"config" description:"YAML file with connection settings" value-name:"config_file"`
		Desired     string `short:"f" long:"desired" description:"SQL file or directory holding the desired schema" value-name:"path" default:"schema.sql"`
		Export      bool   `long:"export" description:"Dump the current schema as declarative SQL and exit"`
		Description string `long:"description" description:"Description written into the migration header" value-name:"text" default:"schema migration"`
		Output      string `short:"o" long:"output" description:"Write the migration to the file instead of stdout" value-name:"path" default:"-"`
		Help        bool   `long:"help" description:"Show this help"`
		Version     bool   `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[OPTIONS] [database|current.sql|current_dir]"
	args, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Printf("%s (%s)\n", version, revision)
		os.Exit(0)
	}

	if len(args) == 0 {
		fmt.Print("No database or current schema is specified!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	} else if len(args) > 1 {
		fmt.Printf("Multiple arguments are given: %v\n\n", args)
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	options := pgplan.Options{
		Description: opts.Description,
		Export:      opts.Export,
		Output:      opts.Output,
	}

	current := args[0]
	if strings.HasSuffix(current, ".sql") || isDir(current) {
		return database.Config{}, current, opts.Desired, &options
	}

	config := database.Config{
		DbName:  current,
		User:    opts.User,
		Host:    opts.Host,
		Port:    int(opts.Port),
		SslMode: opts.SslMode,
	}
	if opts.Config != "" {
		config, err = database.ParseConfig(opts.Config)
		if err != nil {
			log.Fatal(err)
		}
		config.DbName = current
	}

	password, ok := os.LookupEnv("PGPASSWORD")
	if !ok {
		password = opts.Password
	}
	if opts.Prompt {
		fmt.Printf("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
	}
	config.Password = password

	// A host starting with a slash is a socket directory, like psql.
	if strings.HasPrefix(config.Host, "/") {
		config.Socket = config.Host
		config.Host = ""
	}

	return config, "", opts.Desired, &options
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func main() {
	util.InitSlog()
	config, currentPath, desiredPath, options := parseOptions(os.Args[1:])

	var current database.Source
	if currentPath != "" {
		current = file.NewSource(currentPath, 0)
	} else {
		var err error
		current, err = postgres.NewSource(config)
		if err != nil {
			log.Fatal(err)
		}
	}
	defer current.Close()

	desired := file.NewSource(desiredPath, -1)
	defer desired.Close()

	if err := pgplan.Run(current, desired, options); err != nil {
		log.Fatal(err)
	}
}
