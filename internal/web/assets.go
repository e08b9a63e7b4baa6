package web

import "embed"

// assets holds the page templates and the hand-written stylesheet.
//
//go:embed templates/*.html static/*
var assets embed.FS
