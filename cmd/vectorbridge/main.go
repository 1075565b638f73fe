// Command vectorbridge fronts a vector index with the one-shot JSON protocol
// used by the API: "exec" answers a single request on stdin/stdout and
// "serve" answers POST /v1/command over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
	"github.com/oksasatya/greenloop/internal/vectorindex"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

const maxRequestBytes = 4 << 20

var (
	cfg    *config.Config
	logger *logrus.Logger

	rootCmd = &cobra.Command{
		Use:   "vectorbridge",
		Short: "Vector index bridge for GreenLoop memories",
	}
	execCmd = &cobra.Command{
		Use:   "exec",
		Short: "Read one command from stdin and write one response to stdout",
		RunE:  runExec,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /v1/command over HTTP",
		RunE:  runServe,
	}
)

func init() {
	_ = godotenv.Load()
	cfg = config.Load()

	f := rootCmd.PersistentFlags()
	f.StringVar(&cfg.VectorBackend, "backend", cfg.VectorBackend, "index backend: chromem or weaviate")
	f.StringVar(&cfg.VectorPersistPath, "persist", cfg.VectorPersistPath, "chromem persistence directory (empty keeps it in memory)")
	f.StringVar(&cfg.VectorCollection, "collection", cfg.VectorCollection, "chromem collection name")
	f.IntVar(&cfg.VectorDimension, "dim", cfg.VectorDimension, "expected vector dimension (0 disables the check)")
	f.StringVar(&cfg.WeaviateURL, "weaviate-url", cfg.WeaviateURL, "weaviate base URL")
	f.StringVar(&cfg.WeaviateClassName, "class", cfg.WeaviateClassName, "weaviate class name")
	serveCmd.Flags().StringVar(&cfg.VectorBridgePort, "port", cfg.VectorBridgePort, "listen port")

	rootCmd.AddCommand(execCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openIndex(ctx context.Context) (vectorindex.Index, error) {
	switch cfg.VectorBackend {
	case "weaviate":
		return vectorindex.NewWeaviate(ctx, vectorindex.WeaviateConfig{
			URL:       cfg.WeaviateURL,
			ClassName: cfg.WeaviateClassName,
			Dimension: cfg.VectorDimension,
		})
	case "chromem", "":
		return vectorindex.NewChromem(vectorindex.ChromemConfig{
			PersistPath: cfg.VectorPersistPath,
			Collection:  cfg.VectorCollection,
			Dimension:   cfg.VectorDimension,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.VectorBackend)
	}
}

// runExec always writes a response; the exit code stays zero so the caller
// reads the in-band status.
func runExec(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := json.NewEncoder(cmd.OutOrStdout())

	raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxRequestBytes))
	if err != nil {
		return out.Encode(vectorbridge.Errorf("read stdin: " + err.Error()))
	}
	idx, err := openIndex(ctx)
	if err != nil {
		return out.Encode(vectorbridge.Errorf("open index: " + err.Error()))
	}
	defer func() { _ = idx.Close() }()
	return out.Encode(vectorindex.Handle(ctx, idx, raw))
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger = helpers.NewLogger("vectorbridge", cfg.Env)
	gin.SetMode(cfg.GinMode)

	idx, err := openIndex(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST(vectorbridge.CommandPath, commandHandler(idx))

	srv := &http.Server{Addr: ":" + cfg.VectorBridgePort, Handler: r}
	go func() {
		logger.WithField("backend", cfg.VectorBackend).Infof("vector bridge listening on :%s", cfg.VectorBridgePort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// commandHandler answers every request with 200 and an in-band status,
// matching the exec mode.
func commandHandler(idx vectorindex.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
		if err != nil {
			c.JSON(http.StatusOK, vectorbridge.Errorf("read body: "+err.Error()))
			return
		}
		resp := vectorindex.Handle(c.Request.Context(), idx, raw)
		if resp.Status == vectorbridge.StatusError && logger != nil {
			logger.WithField("message", resp.Message).Warn("vector command failed")
		}
		c.JSON(http.StatusOK, resp)
	}
}
