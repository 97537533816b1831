package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/tilepuzzle/api"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
	"github.com/wricardo/mcp-training/tilepuzzle/transport/mcp"
	"github.com/wricardo/mcp-training/tilepuzzle/transport/websocket"
)

// maxMCPBody caps a single JSON-RPC request on /mcp
const maxMCPBody = 1 << 20

// newRouter puts the MCP JSON-RPC endpoint next to the REST and WebSocket routes
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.Handle("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mux
}

func mcpHandler(srv *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "POST a JSON-RPC message", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		msg, err := io.ReadAll(io.LimitReader(r.Body, maxMCPBody))
		if err != nil {
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		reply, err := json.Marshal(srv.HandleMessage(r.Context(), msg))
		if err != nil {
			http.Error(w, "cannot encode reply", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(reply)
	}
}

// runHTTPServer blocks until ctx is cancelled, then drains connections
func runHTTPServer(ctx context.Context, svc service.GameService) {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	handler := newRouter(api.NewServer(svc, hub), mcp.NewClient("http://"+addr))

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  time.Minute,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("listening on http://%s (api /api, websocket /ws?session=<id>, mcp /mcp)", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	if settings := loadNgrokSettings(); settings.enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, settings, handler)
		}()
	}

	<-ctx.Done()
	log.Println("shutting down")

	drain, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(drain); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	wg.Wait()
}

// apiAvailable reports whether a puzzle API answers its health check
func apiAvailable(baseURL string) bool {
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer speaks MCP on stdio. Tools go to the API on
// localhost:8080 when it is up, otherwise to a private loopback server.
func runStdioMCPWithInternalServer(svc service.GameService) {
	baseURL := "http://localhost:8080"
	if apiAvailable(baseURL) {
		log.Printf("[MCP] using running API at %s", baseURL)
	} else {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("[MCP] loopback listener: %v", err)
		}
		baseURL = "http://" + ln.Addr().String()

		hub := websocket.NewHub()
		go hub.Run()
		go func() {
			if err := http.Serve(ln, api.NewServer(svc, hub)); err != nil {
				log.Printf("[MCP] internal api: %v", err)
			}
		}()
		log.Printf("[MCP] started internal API at %s", baseURL)
	}

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		log.Fatalf("[MCP] stdio: %v", err)
	}
}
