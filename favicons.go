/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/julienschmidt/httprouter"
)

//go:embed favicons/*
var favicons embed.FS

func getFavicon() string {
	return `<link rel="icon" type="image/svg+xml" href="/favicons/favicon.svg">
	<link rel="manifest" href="/favicons/site.webmanifest" crossorigin="use-credentials">
	<meta name="theme-color" content="#1d3f8f">`
}

func serveFavicons(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, cfg.prefix), "/")

		data, err := favicons.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		switch filepath.Ext(fname) {
		case ".svg":
			w.Header().Set("Content-Type", "image/svg+xml")
		case ".webmanifest":
			w.Header().Set("Content-Type", "application/manifest+json")
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}
