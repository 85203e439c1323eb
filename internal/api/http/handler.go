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

package http

import (
	"bytes"
	"context"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/prometheus/common/expfmt"

	docapp "docqa/internal/app"
	"docqa/internal/pipeline/common"
	pkgerrors "docqa/pkg/errors"
	"docqa/pkg/log"
	"docqa/pkg/metrics"
)

// msgBadBody 请求体不是合法 JSON
const msgBadBody = "Invalid request body."

// Handler HTTP 处理器；业务全部委托 DocumentService
type Handler struct {
	docs   docapp.DocumentService
	logger *log.Logger
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(docs docapp.DocumentService, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handler{docs: docs, logger: logger}
}

type askRequest struct {
	Filename string `json:"filename"`
	Question string `json:"question"`
}

// HealthCheck 健康检查
// GET /health
func (h *Handler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status":  "healthy",
		"message": "API is running correctly",
	})
}

// UploadDocument 上传 PDF 并建立索引
// POST /upload (multipart, field "file")
func (h *Handler) UploadDocument(ctx context.Context, c *app.RequestContext) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"detail": common.MsgMissingFile})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.writeError(ctx, c, err, common.MsgUploadFailed)
		return
	}
	defer f.Close()

	if _, err := h.docs.Upload(ctx, fh.Filename, f); err != nil {
		h.writeError(ctx, c, err, common.MsgUploadFailed)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": common.MsgUploadOK})
}

// AskQuestion 针对已上传文档提问
// POST /ask {"filename": "...", "question": "..."}
func (h *Handler) AskQuestion(ctx context.Context, c *app.RequestContext) {
	var req askRequest
	if err := sonic.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"detail": msgBadBody})
		return
	}
	answer, err := h.docs.Ask(ctx, req.Filename, req.Question)
	if err != nil {
		h.writeError(ctx, c, err, common.MsgAskFailed)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"answer": answer})
}

// ListDocuments 列出全部文档 id 与文件名
// GET /documents
func (h *Handler) ListDocuments(ctx context.Context, c *app.RequestContext) {
	docs, err := h.docs.ListDocuments(ctx)
	if err != nil {
		h.writeError(ctx, c, err, docapp.MsgListFailed)
		return
	}
	c.JSON(consts.StatusOK, docs)
}

// Metrics Prometheus 文本格式
// GET /metrics
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		h.logger.Error("write metrics failed", "error", err)
		c.String(consts.StatusInternalServerError, err.Error())
		return
	}
	c.Data(consts.StatusOK, string(expfmt.NewFormat(expfmt.TypeTextPlain)), buf.Bytes())
}

// writeError 只返回 Kind 对应的状态码与对外文本；原始错误进日志
func (h *Handler) writeError(ctx context.Context, c *app.RequestContext, err error, fallback string) {
	kind, detail := pkgerrors.Public(err, fallback)
	if kind == pkgerrors.KindInternal {
		h.logger.ErrorContext(ctx, "request failed", "path", string(c.Path()), "error", err)
	} else {
		h.logger.InfoContext(ctx, "request rejected", "path", string(c.Path()), "kind", kind.String(), "detail", detail)
	}
	c.JSON(pkgerrors.HTTPStatus(kind), utils.H{"detail": detail})
}
