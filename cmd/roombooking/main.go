package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

const projectionCacheEntries = 128

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach storage", "error", err)
		os.Exit(1)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	bookingRepo := newBookingRepositoryAdapter(sqlite.NewBookingRepository(pool))
	roomRepo := newRoomRepositoryAdapter(sqlite.NewRoomRepository(pool))
	userRepo := newUserRepositoryAdapter(sqlite.NewUserRepository(pool))
	seriesRepo := newSeriesRepositoryAdapter(sqlite.NewSeriesRepository(pool))
	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(pool))

	locks := application.NewRoomLocker()
	cache := application.NewProjectionCache(cfg.DashboardTTL, projectionCacheEntries, now)

	bookingService := application.NewBookingServiceWithLogger(bookingRepo, roomRepo, locks, cache, idGenerator, now, logger)
	seriesService := application.NewSeriesServiceWithLogger(seriesRepo, bookingRepo, roomRepo, locks, cache, idGenerator, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, bookingRepo, idGenerator, now, logger)
	userService := application.NewUserService(userRepo, bookingRepo, nil, idGenerator, now)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, logger)
	queryService := application.NewQueryServiceWithLogger(bookingRepo, seriesRepo, roomRepo, userRepo, cache, now, logger)

	if err := ensureAdminAccount(ctx, userRepo, cfg.AdminEmail, idGenerator, now, os.Stderr, logger); err != nil {
		logger.Error("failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Rooms:    httptransport.NewRoomHandler(roomService, logger),
		Bookings: httptransport.NewBookingHandler(bookingService, queryService, logger),
		Series:   httptransport.NewSeriesHandler(seriesService, logger),
		Admin:    httptransport.NewAdminHandler(bookingService, queryService, logger),
		Sessions: authService,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("room booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// adminAccountStore is the slice of the user repository the bootstrap needs.
type adminAccountStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error)
	CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error)
}

// ensureAdminAccount creates the configured administrator on first start so
// a fresh database is never locked out. The generated password is printed
// once to the notice writer and never logged; operators are expected to
// rotate it after first sign-in.
func ensureAdminAccount(ctx context.Context, users adminAccountStore, email string, idGenerator func() string, now func() time.Time, notice io.Writer, logger *slog.Logger) error {
	_, err := users.GetUserCredentialsByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("look up admin account: %w", err)
	}

	password := randomHex(12)
	passwordHash, err := application.CreatePasswordHash(password, application.DefaultArgon2idParams)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	stamp := now().UTC()
	admin := application.User{
		ID:        idGenerator(),
		Email:     email,
		FullName:  "Administrator",
		Role:      application.RoleAdmin,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	if _, err := users.CreateUser(ctx, admin, passwordHash); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	fmt.Fprintf(notice, "bootstrap admin account %s created with password %s; rotate it after first sign-in\n", email, password)
	logger.Info("bootstrapped admin account", "email", email)
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
