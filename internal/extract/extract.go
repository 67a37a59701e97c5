package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedType = errors.New("UNSUPPORTED_FILE_TYPE")

// FromUpload 从上传文件中提取纯文本。
// .txt/.md 按 UTF-8 解码（非法字节替换为 U+FFFD），.pdf 提取页面文本。
func FromUpload(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		return strings.ToValidUTF8(string(data), "�"), nil
	case ".pdf":
		return fromPDF(data)
	default:
		return "", fmt.Errorf("%w: %s，仅支持 .txt/.md/.pdf", ErrUnsupportedType, filename)
	}
}

func fromPDF(data []byte) (text string, err error) {
	// pdf 库对损坏文件可能 panic，统一转成错误返回
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
