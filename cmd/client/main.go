package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"chatwire/internal/client"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	server := flag.String("server", "http://localhost:5500", "chatwire server URL")
	username := flag.String("user", "", "username")
	password := flag.String("pass", "", "password")
	register := flag.Bool("register", false, "create the account instead of logging in")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -user and -pass are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	api := client.NewAPIClient(*server)

	var identity client.Identity
	var err error
	if *register {
		identity, err = api.Register(ctx, *username, *password)
	} else {
		identity, err = api.Login(ctx, *username, *password)
	}
	if err != nil {
		log.Fatal(err)
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	conn, err := client.Dial(wsURL, identity)
	if err != nil {
		log.Fatal(err)
	}

	session := client.NewSession(conn, api, identity)
	defer session.Close()

	if err := conn.WaitConnected(ctx); err != nil {
		log.Fatal(err)
	}

	p := tea.NewProgram(client.NewModel(session))
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}
