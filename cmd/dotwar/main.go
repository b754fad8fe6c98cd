// cmd/dotwar/main.go

// Command dotwar administers game files directly, without a running
// server: creating games, adding ships, and issuing plain-text orders.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ZDSRepositories/dotwar/pkg/config"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/parser"
	"github.com/ZDSRepositories/dotwar/pkg/physics"
	"github.com/ZDSRepositories/dotwar/pkg/registry"
	"github.com/ZDSRepositories/dotwar/pkg/storage"
	"github.com/ZDSRepositories/dotwar/pkg/validation"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: dotwar <command> [flags]

Commands:
  create-game  -game <name> [-dir <game directory>]
  add-ship     -game <name> -ship <name> -captain <name> -team <0|1> [-x N -y N -z N] [-dir <game directory>]
  order        -game <name> -vessel <name> -authcode <code> [-dir <game directory>] <command text>

Order command text looks like:
  burn 10 0 0
  burn 10 0 0 in 2 hours
  burn 10 0 0 at 2024-05-01 13:30
  scan
  agenda`)
	os.Exit(1)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// newRegistry opens the game directory the way the server would, but
// without a bus; nothing watches a local session.
func newRegistry(dir string) *registry.Registry {
	store := storage.NewStore(dir, config.DefaultPhysics())
	return registry.NewRegistry(store, registry.SystemClock{}, nil, nil)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create-game":
		runCreateGame(os.Args[2:])
	case "add-ship":
		runAddShip(os.Args[2:])
	case "order":
		runOrder(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
	}
}

func runCreateGame(args []string) {
	fs := flag.NewFlagSet("create-game", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	dir := fs.String("dir", ".", "Game directory")
	fs.Parse(args)

	name, err := validation.ValidateName(*game)
	if err != nil {
		fail("invalid game name: %v", err)
	}

	reg := newRegistry(*dir)
	if err := reg.CreateGame(context.Background(), name); err != nil {
		fail("creating game: %v", err)
	}
	fmt.Printf("Created game %q in %s.\n", name, *dir)
}

func runAddShip(args []string) {
	fs := flag.NewFlagSet("add-ship", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	ship := fs.String("ship", "", "Ship name")
	captain := fs.String("captain", "", "Captain name")
	team := fs.Int("team", 0, "Team: 0 defenders, 1 attackers")
	x := fs.Float64("x", 0, "Initial position x, km")
	y := fs.Float64("y", 0, "Initial position y, km")
	z := fs.Float64("z", 0, "Initial position z, km")
	dir := fs.String("dir", ".", "Game directory")
	fs.Parse(args)

	gameName, err := validation.ValidateName(*game)
	if err != nil {
		fail("invalid game name: %v", err)
	}
	shipName, err := validation.ValidateName(*ship)
	if err != nil {
		fail("invalid ship name: %v", err)
	}
	if *team != int(entity.TeamDefender) && *team != int(entity.TeamAttacker) {
		fail("team must be 0 (defenders) or 1 (attackers)")
	}

	var captainPtr *string
	if *captain != "" {
		captainPtr = captain
	}

	reg := newRegistry(*dir)
	view, authcode, err := reg.AddShip(context.Background(), gameName, shipName, captainPtr,
		entity.Team(*team), physics.Vector3{X: *x, Y: *y, Z: *z})
	if err != nil {
		fail("adding ship: %v", err)
	}

	fmt.Printf("Added %s %q to game %q at %v for the %s.\n",
		view.Type, view.Name, gameName, view.R, view.Team)
	fmt.Printf("Authcode: %s\n", authcode)
	fmt.Println("Record this authcode; it is not shown again.")
}

func runOrder(args []string) {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	game := fs.String("game", "", "Game name")
	vessel := fs.String("vessel", "", "Vessel name")
	authcode := fs.String("authcode", "", "Vessel authcode")
	dir := fs.String("dir", ".", "Game directory")
	fs.Parse(args)

	gameName, err := validation.ValidateName(*game)
	if err != nil {
		fail("invalid game name: %v", err)
	}
	text := strings.Join(fs.Args(), " ")
	cmd, err := parser.Parse(text)
	if err != nil {
		fail("parsing command: %v", err)
	}

	reg := newRegistry(*dir)
	ctx := context.Background()

	switch cmd.Verb {
	case parser.VerbBurn:
		if *vessel == "" || *authcode == "" {
			fail("burn requires -vessel and -authcode")
		}
		id, err := reg.AddOrder(ctx, gameName, *vessel, *authcode, entity.TaskBurn,
			entity.OrderArgs{Accel: cmd.Accel}, registry.OrderTime{At: cmd.At, In: cmd.In})
		if err != nil {
			fail("adding order: %v", err)
		}
		fmt.Printf("Burn %v scheduled for vessel %q with order ID %d.\n", cmd.Accel, *vessel, id)

	case parser.VerbScan:
		views, err := reg.Scan(ctx, gameName, registry.ScanFilter{})
		if err != nil {
			fail("scanning: %v", err)
		}
		printScan(views)

	case parser.VerbAgenda:
		if *vessel == "" || *authcode == "" {
			fail("agenda requires -vessel and -authcode")
		}
		agenda, err := reg.GetAgenda(ctx, gameName, *vessel, *authcode)
		if err != nil {
			fail("fetching agenda: %v", err)
		}
		printAgenda(*vessel, agenda)
	}
}

func printScan(views []registry.EntityView) {
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
	fmt.Println("Scan complete.")
}

func printAgenda(vessel string, agenda []entity.Order) {
	fmt.Printf("Pending orders for vessel %q:\n", vessel)
	for _, o := range agenda {
		fmt.Printf("  at %s: %s %v ; order ID: %d\n",
			o.Time.Format("03:04 PM on Monday, Jan 02, 2006"), o.Task, o.Args.Accel, o.ID)
	}
	if len(agenda) == 0 {
		fmt.Println("  none")
	}
}
