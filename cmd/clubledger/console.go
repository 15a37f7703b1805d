package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"clubledger/internal/core"
	"clubledger/internal/service"

	"github.com/araddon/dateparse"
	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// runConsole drives the engine interactively: one officer at a keyboard
// entering results after club night.
func runConsole(svc *service.Service) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("console requires a terminal; use the subcommand CLI for scripting")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "clubledger> ",
		HistoryFile:     ".clubledger_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("Club ledger console. Type 'help' for commands.")

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "exit", "quit":
			return nil
		case "help":
			printHelp()
		default:
			if err := dispatch(svc, fields); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		}
	}
}

func dispatch(svc *service.Service, fields []string) error {
	switch fields[0] {
	case "add":
		return cmdAdd(svc, fields[1:])
	case "edit":
		return cmdEdit(svc, fields[1:])
	case "delete":
		return cmdDelete(svc, fields[1:])
	case "game":
		return cmdGame(svc, fields[1:])
	case "games":
		return cmdGames(svc, fields[1:])
	case "player":
		return cmdPlayer(svc, fields[1:])
	case "players":
		return cmdPlayers(svc)
	case "opponents":
		return cmdOpponents(svc, fields[1:])
	case "recompute":
		return svc.RecomputeAll()
	default:
		return fmt.Errorf("unknown command %q, type 'help'", fields[0])
	}
}

func printHelp() {
	fmt.Print(`Commands:
  add <white> <black> <result> <tc> <when>  record a game (result: white_wins|draw|black_wins)
  edit <id> <result>                        change a game's result
  delete <id>                               remove a game
  game <id>                                 show one game
  games <tc> <YYYY-MM-DD>                   show one day's games
  player <username>                         show a player's ratings
  players                                   list players
  opponents <tc> <username>                 show aggregated results per opponent
  recompute                                 rebuild all ratings from scratch
  exit
`)
}

func cmdAdd(svc *service.Service, args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: add <white> <black> <result> <tc> <when>")
	}
	when, err := parseWhenArg(strings.Join(args[4:], " "))
	if err != nil {
		return err
	}
	game, err := svc.AddGame(service.AddGameRequest{
		White:         args[0],
		Black:         args[1],
		Result:        core.Result(args[2]),
		TimeControlID: args[3],
		When:          when,
	})
	if err != nil {
		return err
	}
	fmt.Printf("recorded game %s at %s\n", game.ID, game.When)
	return nil
}

// parseWhenArg accepts either the canonical ledger timestamp or any
// format dateparse understands.
func parseWhenArg(arg string) (core.When, error) {
	if when, err := core.ParseWhen(arg); err == nil {
		return when, nil
	}
	t, err := dateparse.ParseLocal(arg)
	if err != nil {
		return "", fmt.Errorf("unparseable timestamp %q: %w", arg, err)
	}
	return core.NewWhen(t), nil
}

func cmdEdit(svc *service.Service, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: edit <id> <result>")
	}
	game, err := svc.EditResult(args[0], core.Result(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("game %s is now %s\n", game.ID, game.Result)
	return nil
}

func cmdDelete(svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	if err := svc.DeleteGame(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted game %s\n", args[0])
	return nil
}

func cmdGame(svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: game <id>")
	}
	game, err := svc.GetGame(args[0])
	if err != nil {
		return err
	}
	printGames([]core.Game{*game})
	return nil
}

func cmdGames(svc *service.Service, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: games <tc> <YYYY-MM-DD>")
	}
	games, err := svc.GamesOn(args[0], args[1])
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Println("no games")
		return nil
	}
	printGames(games)
	return nil
}

func printGames(games []core.Game) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tWHITE\tBLACK\tRESULT\tW-RATING\tB-RATING")
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f\t%.0f\n",
			g.ID, g.When, g.White, g.Black, g.Result,
			g.WhiteRating.Rating, g.BlackRating.Rating)
	}
	w.Flush()
}

func cmdPlayer(svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: player <username>")
	}
	p, err := svc.Player(args[0])
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME CONTROL\tRATING\tGAMES\tW\tD\tL")
	for _, tc := range svc.TimeControls() {
		r, ok := p.Ratings[tc.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%.0f\t%d\t%d\t%d\t%d\n", tc.ID, r.Rating, r.NumGames, r.Won, r.Drawn, r.Lost)
	}
	w.Flush()
	return nil
}

func cmdPlayers(svc *service.Service) error {
	for _, username := range svc.Players() {
		fmt.Println(username)
	}
	return nil
}

func cmdOpponents(svc *service.Service, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: opponents <tc> <username>")
	}
	asWhite, asBlack, err := svc.Opponents(args[0], args[1])
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEAT\tOPPONENT\tW\tD\tL")
	for _, e := range asWhite {
		fmt.Fprintf(w, "white\t%s\t%d\t%d\t%d\n", e.Neighbor, e.Metadata.Won, e.Metadata.Drawn, e.Metadata.Lost)
	}
	for _, e := range asBlack {
		fmt.Fprintf(w, "black\t%s\t%d\t%d\t%d\n", e.Neighbor, e.Metadata.Won, e.Metadata.Drawn, e.Metadata.Lost)
	}
	w.Flush()
	return nil
}
