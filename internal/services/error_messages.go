// internal/services/error_messages.go
package services

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/llm"
)

// 面向用户的错误提示
const (
	msgBlocked             = "오류: 입력하신 내용에 부적절한 단어가 포함되어 생성이 차단되었습니다."
	msgExtractionFailed    = "오류: 캐릭터 설명 분석에 실패했습니다. 내용을 조금 더 자세히 작성하거나, 잠시 후 다시 시도해주세요."
	msgGenerationFailed    = "오류: 이미지 생성에 실패했습니다. API 무료 사용량을 초과했거나, 일시적인 서비스 오류일 수 있습니다. 잠시 후 다시 시도해 주세요."
	msgEditFailed          = "오류: 이미지 수정에 실패했습니다. API 무료 사용량을 초과했거나, 서비스가 요청을 처리할 수 없습니다. 다시 시도해 주세요."
	msgCharacterFailed     = "오류: 캐릭터 생성에 실패했습니다. API 무료 사용량을 초과했거나, 부적절한 프롬프트일 수 있습니다."
	msgTimeout             = "오류: 생성 요청 시간이 초과되었습니다. 잠시 후 다시 시도해 주세요."
	msgUnknown             = "알 수 없는 오류가 발생했습니다."
	editFailurePrefix      = "이미지 수정 실패: "
	unspecifiedBlockReason = "BLOCK_REASON_UNSPECIFIED"
)

// FriendlyMessage 把生成接口的错误转换为提示文字，无法识别时返回原始信息
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	if blocked, ok := llm.IsBlocked(err); ok {
		if reason := strings.TrimSpace(blocked.Reason); reason != "" && reason != unspecifiedBlockReason {
			return msgBlocked + " (사유: " + reason + ")"
		}
		return msgBlocked
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimeout
	}

	var genErr *llm.GenerationError
	op := ""
	if errors.As(err, &genErr) {
		op = genErr.Op
	}
	message := err.Error()

	switch {
	case op == llm.OpCharacterExtraction || strings.Contains(message, llm.OpCharacterExtraction):
		return msgExtractionFailed
	case op == llm.OpSceneGeneration || strings.Contains(message, llm.OpSceneGeneration):
		return msgGenerationFailed
	case op == llm.OpImageEdit || strings.Contains(message, llm.OpImageEdit):
		return msgEditFailed
	case op == llm.OpCharacterGeneration || strings.Contains(message, llm.OpCharacterGeneration):
		return msgCharacterFailed
	}
	if message == "" {
		return msgUnknown
	}
	return message
}

// externalError 包装生成失败，超时单独归类
func externalError(prefix string, err error) error {
	message := prefix + FriendlyMessage(err)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewAppError(apperrors.ErrorTypeTimeout, message, err)
	}
	return apperrors.NewExternalError(message, err)
}
