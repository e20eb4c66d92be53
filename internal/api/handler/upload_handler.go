package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/internal/service"
	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/response"
	"github.com/d60-Lab/chirp/pkg/storage"
)

// PresignUpload 获取图片上传地址
// @Summary 获取预签名上传 URL
// @Description 返回的 URL 需用 PUT 并原样带上 headers 上传
// @Tags 上传
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PresignRequest true "文件类型与大小"
// @Success 200 {object} response.Response{data=dto.PresignedUpload}
// @Failure 400 {object} response.Response
// @Router /api/v1/uploads/presign [post]
func (h *Handler) PresignUpload(c *gin.Context) {
	var req dto.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// filetype 规则失败时给出与 service 相同的提示
		if _, ok := storage.FileSuffix(req.FileType); !ok && req.FileType != "" {
			h.fail(c, service.InvalidFileType(req.FileType))
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	up, err := h.uploads.Presign(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, up)
}
