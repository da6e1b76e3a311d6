package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/handlers"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/processors"
	"github.com/username/easysplit/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("EasySplit backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	rateService := services.NewRateService()
	emailService := services.NewEmailService()

	aggregator := processors.NewExpenseAggregator()
	normalizer := processors.NewCurrencyNormalizer(processors.MissingRatePolicy(config.Cfg.RateMissingPolicy))
	netter := processors.NewNettingReducer()
	engine := processors.NewSettlementEngine(aggregator, normalizer, netter)

	settlementService := services.NewSettlementService(engine, rateService, reportCache)

	settleHandler := handlers.NewSettleHandler(settlementService)
	tripHandler := handlers.NewTripHandler(settlementService)
	participantHandler := handlers.NewParticipantHandler(settlementService)
	expenseHandler := handlers.NewExpenseHandler(settlementService)
	uploadHandler := handlers.NewUploadHandler(settlementService)
	settlementHandler := handlers.NewSettlementHandler(settlementService, emailService)
	ratesHandler := handlers.NewRatesHandler(rateService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/settle", settleHandler.HandleSettle)

	apiRouter.HandleFunc("POST /api/trips", tripHandler.HandleCreateTrip)
	apiRouter.HandleFunc("GET /api/trips", tripHandler.HandleListTrips)
	apiRouter.HandleFunc("GET /api/trips/{tripID}", tripHandler.HandleGetTrip)
	apiRouter.HandleFunc("DELETE /api/trips/{tripID}", tripHandler.HandleDeleteTrip)

	apiRouter.HandleFunc("POST /api/trips/{tripID}/participants", participantHandler.HandleAddParticipant)
	apiRouter.HandleFunc("GET /api/trips/{tripID}/participants", participantHandler.HandleListParticipants)

	apiRouter.HandleFunc("POST /api/trips/{tripID}/expenses", expenseHandler.HandleAddExpense)
	apiRouter.HandleFunc("GET /api/trips/{tripID}/expenses", expenseHandler.HandleListExpenses)
	apiRouter.HandleFunc("DELETE /api/trips/{tripID}/expenses/{expenseID}", expenseHandler.HandleDeleteExpense)

	apiRouter.HandleFunc("POST /api/trips/{tripID}/expenses/import", uploadHandler.HandleImportExpenses)
	apiRouter.HandleFunc("GET /api/trips/{tripID}/expenses/export", uploadHandler.HandleExportExpenses)

	apiRouter.HandleFunc("GET /api/trips/{tripID}/settlement", settlementHandler.HandleGetSettlement)
	apiRouter.HandleFunc("POST /api/trips/{tripID}/settlement/email", settlementHandler.HandleEmailSettlement)

	apiRouter.HandleFunc("GET /api/rates", ratesHandler.HandleGetRates)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "EasySplit Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
