package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// wordsPerMinute は読了時間算出に使う読書速度（語/分）。
const wordsPerMinute = 200

// PlainText はHTML断片からタグを除いたテキストを抽出する。
// パースに失敗した場合は入力をそのまま返す。
func PlainText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	var b strings.Builder
	collectText(doc, &b)
	return b.String()
}

// collectText はノードツリーを走査してテキストノードを連結する。
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	// scriptとstyleの中身は本文ではない
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// WordCount はHTML本文のタグを除いた語数を返す。
func WordCount(rawHTML string) int {
	return len(strings.Fields(PlainText(rawHTML)))
}

// ReadTime は本文から読了時間の表示文字列を導出する。
// 200語/分で切り上げ、"N min read" 形式で返す。
func ReadTime(rawHTML string) string {
	words := WordCount(rawHTML)
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return fmt.Sprintf("%d min read", minutes)
}
