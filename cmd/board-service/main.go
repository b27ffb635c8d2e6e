package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesaviva/resto-live/internal/config"
	"github.com/mesaviva/resto-live/internal/httpx"
	"github.com/mesaviva/resto-live/internal/live"
	"github.com/mesaviva/resto-live/internal/menu"
	"github.com/mesaviva/resto-live/internal/order"
	"github.com/mesaviva/resto-live/internal/staff"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	orderRepo := order.NewPGRepo(pool)
	menuRepo := menu.NewPGRepo(pool)
	staffRepo := staff.NewPGRepo(pool)
	sessions := staff.NewSessions(staffRepo)

	board := live.NewBoard(orderRepo, live.LogNotifier{}, cfg.RestaurantID)
	if err := board.Load(ctx); err != nil {
		// Not fatal: the board starts empty and a reload can be retried
		// through the API once the database is back.
		log.Printf("[board] initial load failed: %v", err)
	}

	feed, err := live.NewFeed(cfg.AmqpURL, cfg.FeedQueue)
	if err != nil {
		log.Fatalf("feed: %v", err)
	}
	defer feed.Close()
	if err := feed.Subscribe(ctx, board); err != nil {
		log.Fatalf("feed subscribe: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.POST("/login", loginHandler(sessions))

	auth := r.Group("/", httpx.BearerAuth(sessions))
	auth.POST("/logout", logoutHandler(sessions))

	auth.GET("/orders", listOrdersHandler(board, cfg.RestaurantID))
	auth.POST("/orders/reload", reloadOrdersHandler(board, cfg.RestaurantID))
	auth.GET("/orders/stats", orderStatsHandler(board, cfg.RestaurantID))
	auth.GET("/orders/:id/items", getOrderItemsHandler(board, cfg.RestaurantID))
	auth.PUT("/orders/:id/status", updateOrderStatusHandler(board, cfg.RestaurantID))

	auth.GET("/menu", listMenuHandler(menuRepo))
	auth.GET("/menu/search", searchMenuHandler(menuRepo))
	auth.GET("/menu/:id", getMenuItemHandler(menuRepo))
	auth.POST("/menu", createMenuItemHandler(menuRepo))
	auth.PUT("/menu/:id", updateMenuItemHandler(menuRepo))
	auth.PUT("/menu/:id/availability", setMenuAvailabilityHandler(menuRepo))
	auth.DELETE("/menu/:id", deleteMenuItemHandler(menuRepo))

	log.Printf("board-service listening on %s", cfg.BoardSvcAddr)
	log.Fatal(r.Run(cfg.BoardSvcAddr))
}
