// Copyright 2025 Mongobox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// errResponse is the JSON body sent for failed API requests. Transport and
// framework failures surface here; tool-level failures travel inside the
// invocation result envelope instead.
type errResponse struct {
	code int

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

var _ render.Renderer = &errResponse{}

func newErrResponse(err error, code int) *errResponse {
	return &errResponse{
		code:       code,
		StatusText: http.StatusText(code),
		ErrorText:  err.Error(),
	}
}

func (e *errResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.code)
	return nil
}
