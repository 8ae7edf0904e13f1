package markdown

import (
	"errors"
	"html"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

// ErrEmptyContent 内容为空
var ErrEmptyContent = errors.New("内容不能为空")

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// ToHTML 将 Markdown 转换为经过清洗的 HTML
func ToHTML(content string) string {
	unsafe := blackfriday.MarkdownCommon([]byte(content))
	return string(ugcPolicy.SanitizeBytes(unsafe))
}

// FromHTML 将 HTML 内容转换为 Markdown
func FromHTML(htmlContent string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", ErrEmptyContent
	}

	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(htmlContent)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Summarize 提取 Markdown 渲染后的纯文本，超过 maxRunes 时截断
func Summarize(content string, maxRunes int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ToHTML(content)))
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes]) + "..."
}

// FirstImage 返回正文中第一张图片的地址，没有时返回空串
func FirstImage(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ToHTML(content)))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// StripTags 去掉所有标签，用于昵称、简介等纯文本字段
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
