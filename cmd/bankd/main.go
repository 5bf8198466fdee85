// bankd is a local stand-in for the real banking backend: the full REST
// surface bankctl consumes, kept in memory. Development only.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bankctl/internal/banktest"
)

func main() {
	addr := flag.String("addr", "", "Listen address (overrides BANKD_ADDR)")
	flag.Parse()

	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	listen := getEnv("BANKD_ADDR", ":8080")
	if *addr != "" {
		listen = *addr
	}

	srv := banktest.New(banktest.Config{
		JWTSecret: os.Getenv("BANKD_JWT_SECRET"),
	})
	srv.SeedManager("margaret", "manager-pass-1")
	srv.SeedClerk("colin", "clerk-pass-12", true)
	srv.SeedAccount("Ada Lovelace", 1250.00)
	srv.SeedAccount("Alan Turing", 310.25)

	logger.Info("bankd listening",
		zap.String("addr", listen),
		zap.String("manager", "margaret"),
		zap.String("clerk", "colin"))
	if err := http.ListenAndServe(listen, srv); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
