// Command superqnode runs a standalone superq node: a TCP/TLS server
// hosting a public Datastore, plus a read-only admin HTTP surface.
package main

import (
	"crypto/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/manesajian/superq"
	"github.com/manesajian/superq/internal/fmtt"
	"github.com/manesajian/superq/internal/node"
	"github.com/manesajian/superq/internal/sqlengine"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	listenAddr := pflag.String("listen", ":9700", "plain TCP listen address")
	tlsAddr := pflag.String("tls-listen", "", "TLS listen address (empty disables TLS)")
	certFile := pflag.String("cert", "", "TLS certificate file")
	keyFile := pflag.String("key", "", "TLS key file")
	adminAddr := pflag.String("admin-listen", ":9780", "admin HTTP listen address (empty disables it)")
	devLog := pflag.Bool("dev", false, "use development (human-readable) logging")
	pidFile := pflag.String("pid-file", "node.pid", "file to record this process's pid in")
	pflag.Parse()

	logConfig := zap.NewProductionConfig()
	if *devLog {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("superqnode")

	if err := os.WriteFile(*pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		log.Warn("could not write pid file", zap.Error(err))
	}

	engine, err := sqlengine.Open()
	if err != nil {
		if *devLog {
			fmtt.PrintErrChainDebug(err)
		}
		log.Fatal("embedded engine open failed", zap.Error(err))
	}
	defer engine.Close()

	ds := superq.NewDatastore(engine)

	cfg := node.Config{
		ListenAddr:    *listenAddr,
		TLSAddr:       *tlsAddr,
		CertFile:      *certFile,
		KeyFile:       *keyFile,
		AdminAddr:     *adminAddr,
		ShutdownGrace: 5 * time.Second,
	}

	handler := node.NewHandler(ds, log)
	srv := node.NewServer(cfg, handler, log)

	var admin *node.AdminServer
	if cfg.AdminAddr != "" {
		sessionKey := make([]byte, 32)
		if _, err := rand.Read(sessionKey); err != nil {
			log.Fatal("session key generation failed", zap.Error(err))
		}
		admin = node.NewAdminServer(ds, cfg.AdminAddr, sessionKey, log)
		go func() {
			if err := admin.Start(); err != nil {
				log.Error("admin server stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal("node server stopped", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	if admin != nil {
		_ = admin.Shutdown()
	}
	_ = srv.Shutdown()
}
