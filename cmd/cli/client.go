// Copyright 2026 fanjia1024
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

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("DOCQA_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

// document GET /documents 列表项
type document struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
}

// apiError 非 2xx 响应；Detail 取自 {"detail": ...}
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

type client struct {
	rc *resty.Client
}

func newClient(baseURL string) *client {
	return &client{rc: resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Minute).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)}
}

func toAPIError(resp *resty.Response) error {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := sonic.Unmarshal(resp.Body(), &body); err != nil || body.Detail == "" {
		body.Detail = resp.String()
	}
	return &apiError{Status: resp.StatusCode(), Detail: body.Detail}
}

func (c *client) health() (string, error) {
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	resp, err := c.rc.R().SetResult(&out).Get("/health")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", toAPIError(resp)
	}
	return out.Status, nil
}

// upload 以 multipart 字段 "file" 上传本地文件
func (c *client) upload(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var out struct {
		Message string `json:"message"`
	}
	resp, err := c.rc.R().
		SetFileReader("file", filepath.Base(path), f).
		SetResult(&out).
		Post("/upload")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", toAPIError(resp)
	}
	return out.Message, nil
}

func (c *client) ask(filename, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	resp, err := c.rc.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"filename": filename, "question": question}).
		SetResult(&out).
		Post("/ask")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", toAPIError(resp)
	}
	return out.Answer, nil
}

func (c *client) documents() ([]document, error) {
	var out []document
	resp, err := c.rc.R().SetResult(&out).Get("/documents")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toAPIError(resp)
	}
	return out, nil
}
