// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var webFS embed.FS

// webHandler serves the embedded browser app: the editor, the transform
// toolbar, and the chat sidebar. Everything ships inside the binary; the
// relay needs no files on disk.
func (s *Server) webHandler() http.Handler {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		// The directory is compiled in; failure here is a build defect.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
