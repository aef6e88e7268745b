package convert

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Reasons printed on placeholder slides.
const (
	reasonPageFailed       = "This page could not be rendered"
	reasonEstimated        = "Estimated slide (converter returned a single image)"
	reasonToolchainMissing = "Preview unavailable: converter not installed"
	reasonConversionFailed = "Preview unavailable: conversion failed"
)

type palette struct {
	Background string
	Foreground string
	Accent     string
	Dash       string
}

// Odd and even slides never share colors or border style.
var (
	oddPalette  = palette{Background: "#1d3557", Foreground: "#f1faee", Accent: "#a8dadc", Dash: "none"}
	evenPalette = palette{Background: "#f4a261", Foreground: "#264653", Accent: "#e76f51", Dash: "24 12"}
)

var placeholderTemplate = template.Must(template.New("placeholder").Funcs(template.FuncMap{
	"xml": escapeXML,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="1280" height="720" viewBox="0 0 1280 720" data-slide="{{.Number}}" data-parity="{{.Parity}}" data-placeholder="true">
  <title>Slide {{.Number}} of {{xml .OriginalName}}</title>
  <rect width="1280" height="720" fill="{{.Palette.Background}}"/>
  <rect x="40" y="40" width="1200" height="640" fill="none" stroke="{{.Palette.Accent}}" stroke-width="8" stroke-dasharray="{{.Palette.Dash}}"/>
  <text x="640" y="300" font-family="sans-serif" font-size="96" font-weight="bold" text-anchor="middle" fill="{{.Palette.Foreground}}">Slide {{.Number}}</text>
  <text x="640" y="390" font-family="sans-serif" font-size="40" text-anchor="middle" fill="{{.Palette.Foreground}}">{{xml .OriginalName}}</text>
  <text x="640" y="460" font-family="sans-serif" font-size="28" text-anchor="middle" fill="{{.Palette.Accent}}">{{xml .Reason}}</text>
</svg>
`))

type placeholderData struct {
	Number       int
	Parity       string
	OriginalName string
	Reason       string
	Palette      palette
}

// RenderPlaceholder returns an SVG standing in for a slide that has no real render. The
// image carries the slide number, the original file name and the reason, and its colors
// depend on the parity of slideNumber.
func RenderPlaceholder(slideNumber int, originalName, reason string) ([]byte, error) {
	data := placeholderData{
		Number:       slideNumber,
		Parity:       "odd",
		OriginalName: originalName,
		Reason:       reason,
		Palette:      oddPalette,
	}

	if slideNumber%2 == 0 {
		data.Parity = "even"
		data.Palette = evenPalette
	}

	var b bytes.Buffer
	if err := placeholderTemplate.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("unable to render placeholder for slide %d: %w", slideNumber, err)
	}

	return b.Bytes(), nil
}

func writePlaceholder(dir string, slideNumber int, originalName, reason string) (string, error) {
	content, err := RenderPlaceholder(slideNumber, originalName, reason)
	if err != nil {
		return "", err
	}

	name := slideFileName(slideNumber, ".svg")
	if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
		return "", fmt.Errorf("unable to write placeholder %s: %w", name, err)
	}

	return name, nil
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
