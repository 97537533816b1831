package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

type ngrokSettings struct {
	enabled   bool
	authToken string
	domain    string
}

// loadNgrokSettings fills unset ngrok flags from NGROK_ENABLED,
// NGROK_AUTHTOKEN (or NGROK_AUTH_TOKEN) and NGROK_DOMAIN
func loadNgrokSettings() ngrokSettings {
	s := ngrokSettings{enabled: *ngrokEnabled, authToken: *ngrokAuth, domain: *ngrokDomain}

	if !s.enabled {
		switch os.Getenv("NGROK_ENABLED") {
		case "1", "true":
			s.enabled = true
		}
	}
	for _, env := range []string{"NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"} {
		if s.authToken != "" {
			break
		}
		s.authToken = os.Getenv(env)
	}
	if s.domain == "" {
		s.domain = os.Getenv("NGROK_DOMAIN")
	}
	return s
}

// runNgrokTunnel serves handler on a public ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, settings ngrokSettings, handler http.Handler) {
	if settings.authToken == "" {
		log.Println("[NGROK] enabled without an authtoken, skipping tunnel")
		return
	}

	var opts []ngrokConfig.HTTPEndpointOption
	if settings.domain != "" {
		opts = append(opts, ngrokConfig.WithDomain(settings.domain))
	}

	tun, err := ngrok.Listen(ctx, ngrokConfig.HTTPEndpoint(opts...), ngrok.WithAuthtoken(settings.authToken))
	if err != nil {
		log.Printf("[NGROK] listen: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	log.Printf("[NGROK] public url %s (api %s/api, mcp %s/mcp)", tun.URL(), tun.URL(), tun.URL())
	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("[NGROK] serve: %v", err)
	}
}
