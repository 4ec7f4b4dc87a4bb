package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepass/config"
	"coursepass/internal/database"
	"coursepass/internal/repository"
	"coursepass/internal/router"
	"coursepass/internal/service"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"))

	// Background expiration sweep, stopped on shutdown.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		membershipRepo := repository.NewMembershipRepository(db)
		paymentRepo := repository.NewPaymentRepository(db)
		userRepo := repository.NewUserRepository(db)
		trialRepo := repository.NewTrialRepository(db)
		courseRepo := repository.NewCourseRepository(db)
		notifSvc := service.NewNotificationService(repository.NewNotificationRepository(db))
		memberSvc := service.NewMembershipService(membershipRepo, paymentRepo, userRepo, trialRepo, courseRepo, notifSvc)
		service.NewSweeper(membershipRepo, memberSvc, cfg.Membership.SweepInterval).Start(sweepCtx)
	}()

	engine := router.Setup(cfg, db)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
