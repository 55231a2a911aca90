// ldscstatus serves a read-only JSON view of the run ledger written by
// ldsccts, so that a sweep running on a remote VM can be followed over an ssh
// tunnel.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"runtime"
	"syscall"

	_ "github.com/carbocation/ldsccts/compileinfoprint"
	"github.com/carbocation/ldsccts/runstore"
)

var global *Global

func main() {
	errors := make(chan error, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGUSR1,
	)

	dbPath := flag.String("db", "", "Path to the sqlite run ledger written by ldsccts -db")
	port := flag.Int("port", 9020, "Port for HTTP server")
	flag.Parse()

	if *dbPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	store, err := runstore.Open(*dbPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer store.Close()

	global = &Global{
		Site:  "ldscstatus",
		log:   log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime),
		store: store,
	}

	global.log.Println("Launching", global.Site, "on ledger", *dbPath)

	if whoami, err := user.Current(); err == nil {
		if hostname, err := os.Hostname(); err == nil {
			global.log.Println("Locally, you should now run:")
			global.log.Printf("gcloud compute ssh %s@%s -- -NnT -L %d:localhost:%d\n", whoami.Username, hostname, *port, *port)
		}
	}

	go func() {
		global.log.Println("Starting HTTP server on port", *port)
		if err := http.ListenAndServe(fmt.Sprintf(`:%d`, *port), router(global)); err != nil {
			errors <- err
			return
		}
	}()

Outer:
	for {
		select {
		case sigl := <-sig:
			if sigl == syscall.SIGUSR1 {
				global.log.Println("There are", runtime.NumGoroutine(), "goroutines running")
				continue
			}

			global.log.Printf("\nExit: %s\n", sigl.String())
			break Outer

		case err := <-errors:
			global.log.Println("Exiting due to error", err)
			store.Close()
			os.Exit(1)
		}
	}
}
