package rs485

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// DefaultCharset 显示/语音板固件使用的字符集
const DefaultCharset = "GBK"

// TextEncoder 将文本转换为设备字节（默认 GBK）
type TextEncoder struct {
	name string
	enc  encoding.Encoding // nil 表示 UTF-8 直出
}

// DefaultText 全局默认 GBK 编码器
var DefaultText = &TextEncoder{name: DefaultCharset, enc: simplifiedchinese.GBK}

// NewTextEncoder 按 IANA 名称查找字符集。
// 找不到时返回 UTF-8 编码器与 ErrEncodingUnavailable，调用方记录日志后继续使用。
func NewTextEncoder(charset string) (*TextEncoder, error) {
	name := strings.TrimSpace(charset)
	if name == "" {
		return DefaultText, nil
	}
	if strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return &TextEncoder{name: "UTF-8"}, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return &TextEncoder{name: "UTF-8"}, fmt.Errorf("%w: %s", ErrEncodingUnavailable, name)
	}
	return &TextEncoder{name: name, enc: enc}, nil
}

// Name 字符集名称
func (t *TextEncoder) Name() string {
	return t.name
}

// Bytes 编码文本，不可表示的字符替换为 '?'
func (t *TextEncoder) Bytes(text string) []byte {
	if text == "" {
		return []byte{}
	}
	if t == nil || t.enc == nil {
		return []byte(text)
	}
	out, err := t.enc.NewEncoder().Bytes([]byte(text))
	if err == nil {
		return out
	}

	e := t.enc.NewEncoder()
	buf := make([]byte, 0, len(text)*2)
	for _, r := range text {
		b, err := e.Bytes([]byte(string(r)))
		if err != nil {
			buf = append(buf, '?')
			continue
		}
		buf = append(buf, b...)
	}
	return buf
}

// ToHexString 字节转大写十六进制字符串（无分隔符）
func ToHexString(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// HexToBytes 十六进制字符串转字节，大小写均可
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd hex length %d", ErrInvalidInput, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return b, nil
}

// EncodeURLParams 仅对 '?' 之后的查询参数做表单编码（UTF-8），路径部分保持原样
func EncodeURLParams(rawURL string) string {
	q := strings.IndexByte(rawURL, '?')
	if q < 0 {
		return rawURL
	}
	base, query := rawURL[:q+1], rawURL[q+1:]

	// 与固件侧解码一致：末尾空参数丢弃
	params := strings.Split(query, "&")
	for len(params) > 0 && params[len(params)-1] == "" {
		params = params[:len(params)-1]
	}

	var sb strings.Builder
	sb.WriteString(base)
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		key, value, ok := strings.Cut(p, "=")
		sb.WriteString(formEscape(key))
		if ok {
			sb.WriteByte('=')
			sb.WriteString(formEscape(value))
		}
	}
	return sb.String()
}

// formEscape application/x-www-form-urlencoded 编码，保留 '*'，编码 '~'
func formEscape(s string) string {
	out := url.QueryEscape(s)
	if strings.ContainsAny(out, "~%") {
		out = strings.ReplaceAll(out, "~", "%7E")
		out = strings.ReplaceAll(out, "%2A", "*")
	}
	return out
}
