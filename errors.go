/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

var (
	ErrTLSPair         = errors.New("both --tls-cert and --tls-key must be provided together")
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidPairs    = errors.New("at least one pair is required")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrNotEnoughImages = errors.New("not enough images for the requested number of pairs")
	ErrTooManyPairs    = errors.New("more pairs requested than built-in faces available; use --images")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func logErrors(cfg *Config, errs <-chan error) {
	for err := range errs {
		logf(cfg, "ERROR: %v", err)
	}
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
