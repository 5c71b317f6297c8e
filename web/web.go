// Package web embeds the clock page. The page holds no clock or weather logic of
// its own; it mirrors the display board over /api/display/stream.
package web

import "embed"

//go:embed index.html style.css app.js
var Static embed.FS
