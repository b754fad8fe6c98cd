// cmd/client/main.go

// Command client talks to a running game server over its HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/config"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/network"
	"github.com/ZDSRepositories/dotwar/pkg/parser"
	"github.com/ZDSRepositories/dotwar/pkg/registry"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: client -server <url> <command> [flags]

Commands:
  games
  status       -game <name>
  scan         -game <name> [-type craft|planet] [-team 0|1]
  event-log    -game <name> [-start RFC3339] [-end RFC3339]
  agenda       -game <name> -vessel <name> -authcode <code>
  add-order    -game <name> -vessel <name> -authcode <code> <command text>
  delete-order -game <name> -vessel <name> -authcode <code> -id <order id>

Order command text looks like "burn 10 0 0 in 2 hours".`)
	os.Exit(1)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	serverURL := flag.String("server", defaultServerURL(), "Server base URL")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		fail("loading environment configuration: %v", err)
	}
	client := network.NewClient(*serverURL, envConfig)
	ctx := context.Background()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "games":
		runGames(ctx, client)
	case "status":
		runStatus(ctx, client, args)
	case "scan":
		runScan(ctx, client, args)
	case "event-log":
		runEventLog(ctx, client, args)
	case "agenda":
		runAgenda(ctx, client, args)
	case "add-order":
		runAddOrder(ctx, client, args)
	case "delete-order":
		runDeleteOrder(ctx, client, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
	}
}

func defaultServerURL() string {
	if url := os.Getenv("DOTWAR_SERVER_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func runGames(ctx context.Context, client *network.Client) {
	games, err := client.Games(ctx)
	if err != nil {
		fail("listing games: %v", err)
	}
	for _, g := range games {
		fmt.Println(g)
	}
}

func runStatus(ctx context.Context, client *network.Client, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	fs.Parse(args)

	status, err := client.Status(ctx, *game)
	if err != nil {
		fail("fetching status: %v", err)
	}
	fmt.Printf("Game %q status:\n", status.Name)
	fmt.Printf("  Created on:  %s\n", status.CreatedOn.Format(time.RFC1123))
	fmt.Printf("  System time: %s\n", status.SystemTime.Format(time.RFC1123))
}

func runScan(ctx context.Context, client *network.Client, args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	typeFilter := fs.String("type", "", "Filter by entity type: craft or planet")
	teamFilter := fs.Int("team", -99, "Filter by team: 0 defenders, 1 attackers")
	fs.Parse(args)

	var filter registry.ScanFilter
	if *typeFilter != "" {
		t := entity.Type(*typeFilter)
		filter.Type = &t
	}
	if *teamFilter != -99 {
		team := entity.Team(*teamFilter)
		filter.Team = &team
	}

	views, err := client.Scan(ctx, *game, filter)
	if err != nil {
		fail("scanning: %v", err)
	}
	fmt.Printf("Found %d entities.\n", len(views))
	fmt.Println("NAME\tTYPE\tCAPTAIN\tPOSITION\tHEADING\tACCELERATION\tALLEGIANCE")
	for _, v := range views {
		captain := "-----"
		if v.Captain != nil {
			captain = *v.Captain
		}
		fmt.Printf("%s\t%s\t%s\t%v\t%v\t%v\t%s\n",
			v.Name, v.Type, captain, v.R, v.V, v.A, v.Team)
	}
}

func runEventLog(ctx context.Context, client *network.Client, args []string) {
	fs := flag.NewFlagSet("event-log", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	startRaw := fs.String("start", "", "Earliest event time, RFC 3339")
	endRaw := fs.String("end", "", "Latest event time, RFC 3339")
	fs.Parse(args)

	var start, end time.Time
	var err error
	if *startRaw != "" {
		if start, err = time.Parse(time.RFC3339, *startRaw); err != nil {
			fail("invalid -start: %v", err)
		}
	}
	if *endRaw != "" {
		if end, err = time.Parse(time.RFC3339, *endRaw); err != nil {
			fail("invalid -end: %v", err)
		}
	}

	events, err := client.EventLog(ctx, *game, start, end)
	if err != nil {
		fail("fetching event log: %v", err)
	}
	for _, ev := range events {
		fmt.Printf("%s\t%s\n", ev.Time.Format(time.RFC1123), describeEvent(ev))
	}
}

// describeEvent renders one event as a log summary line.
func describeEvent(ev event.Event) string {
	switch args := ev.Args.(type) {
	case event.Burn:
		return fmt.Sprintf("[NAV] vessel %s started burn %v while at coords %v",
			args.Vessel, args.Accel, args.Kinematics.R)
	case event.Capture:
		return fmt.Sprintf("[ATK] vessel %s captured %s", args.Attacker, args.Planet)
	case event.Defense:
		return fmt.Sprintf("[DEF] vessel %s destroyed vessel %s", args.Defender, args.Victim)
	default:
		return string(ev.Type)
	}
}

func runAgenda(ctx context.Context, client *network.Client, args []string) {
	fs := flag.NewFlagSet("agenda", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	vessel := fs.String("vessel", "", "Vessel name")
	authcode := fs.String("authcode", "", "Vessel authcode")
	fs.Parse(args)

	agenda, err := client.Agenda(ctx, *game, *vessel, *authcode)
	if err != nil {
		fail("fetching agenda: %v", err)
	}
	fmt.Printf("Pending orders for vessel %q:\n", *vessel)
	for _, o := range agenda {
		fmt.Printf("  at %s: %s %v ; order ID: %d\n",
			o.Time.Format("03:04 PM on Monday, Jan 02, 2006"), o.Task, o.Args.Accel, o.ID)
	}
	if len(agenda) == 0 {
		fmt.Println("  none")
	}
}

func runAddOrder(ctx context.Context, client *network.Client, args []string) {
	fs := flag.NewFlagSet("add-order", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	vessel := fs.String("vessel", "", "Vessel name")
	authcode := fs.String("authcode", "", "Vessel authcode")
	fs.Parse(args)

	cmd, err := parser.Parse(strings.Join(fs.Args(), " "))
	if err != nil {
		fail("parsing command: %v", err)
	}
	if cmd.Verb != parser.VerbBurn {
		fail("only burn orders can be submitted; use the scan or agenda commands directly")
	}

	req := network.OrderRequest{
		Task: string(entity.TaskBurn),
		Args: entity.OrderArgs{Accel: cmd.Accel},
	}
	if !cmd.At.IsZero() {
		req.Time = &cmd.At
	} else if cmd.In != 0 {
		interval := cmd.In.Seconds()
		req.Interval = &interval
	}

	id, err := client.AddOrder(ctx, *game, *vessel, *authcode, req)
	if err != nil {
		fail("adding order: %v", err)
	}
	fmt.Printf("Burn %v scheduled for vessel %q with order ID %d.\n", cmd.Accel, *vessel, id)
}

func runDeleteOrder(ctx context.Context, client *network.Client, args []string) {
	fs := flag.NewFlagSet("delete-order", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	vessel := fs.String("vessel", "", "Vessel name")
	authcode := fs.String("authcode", "", "Vessel authcode")
	id := fs.Int("id", 0, "Order ID")
	fs.Parse(args)

	removed, pending, err := client.DeleteOrder(ctx, *game, *vessel, *authcode, *id)
	if err != nil {
		fail("deleting order: %v", err)
	}
	fmt.Printf("Removed order with ID %d from vessel %q. %d order(s) pending.\n",
		removed, *vessel, pending)
}
