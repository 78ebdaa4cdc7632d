// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/wordrush-io/wordrush/internal/auth"
	"github.com/wordrush-io/wordrush/internal/cache"
	"github.com/wordrush-io/wordrush/internal/cards"
	"github.com/wordrush-io/wordrush/internal/database"
	"github.com/wordrush-io/wordrush/internal/handlers"
	"github.com/wordrush-io/wordrush/internal/middleware"
	"github.com/wordrush-io/wordrush/internal/outbox"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Event mirror: match events flow through the outbox into Redis, and
	// syncd drains them into Postgres. The server runs fine without Redis;
	// events are just dropped.
	var events *outbox.Queue
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("Redis unavailable, match events will not be mirrored: %v", err)
	} else {
		events = outbox.NewQueue(cache.NewQueuePublisher(), outbox.DefaultConfig())
		defer events.Close()
	}

	cardSet := cards.DefaultSet()
	if path := os.Getenv("CARD_SET_PATH"); path != "" {
		loaded, err := cards.LoadSetFile(path)
		if err != nil {
			log.Fatalf("failed to load card set %s: %v", path, err)
		}
		cardSet = loaded
		logger.Infof("Loaded %d cards from %s", len(cardSet), path)
	}

	srv := handlers.NewServer(events, cardSet)

	mux := http.NewServeMux()

	// user endpoints
	mux.Handle("/user/create", middleware.LogMiddleware(logger)(http.HandlerFunc(handlers.CreateUserHandler)))
	mux.Handle("/user/login", middleware.LogMiddleware(logger)(http.HandlerFunc(handlers.LoginHandler)))
	mux.Handle("/user/claim", middleware.LogMiddleware(logger)(http.HandlerFunc(handlers.ClaimEphemeralHandler)))

	// room endpoints
	mux.Handle("/room/create", middleware.LogMiddleware(logger)(handlers.CreateRoomHandler(srv)))
	mux.Handle("/room/list", middleware.LogMiddleware(logger)(handlers.ListRoomsHandler(srv)))

	// websockets; not wrapped in LogMiddleware because the status recorder
	// would hide the Hijacker needed for the upgrade
	mux.Handle("/room/ws/", handlers.RoomWSHandler(logger, srv))
	mux.Handle("/match/ws/", handlers.MatchWSHandler(logger, srv))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
