package core

import (
	"strings"
)

// Node types understood by the plain-text helpers.
// Other types are preserved as-is and contribute their text.
const (
	NodeDoc       = "doc"
	NodeHeading   = "heading"
	NodeParagraph = "paragraph"
	NodeText      = "text"
)

// Node is one element of a rich document tree, in the shape produced by
// block editors: a "doc" root with block children, each holding "text" leaves.
// The tree is opaque to the vault except for text extraction.
type Node struct {
	Type    string   `json:"type" yaml:"type"`
	Level   int      `json:"level,omitempty" yaml:"level,omitempty"`
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	Marks   []string `json:"marks,omitempty" yaml:"marks,omitempty"`
	Content []Node   `json:"content,omitempty" yaml:"content,omitempty"`
}

// DefaultContent returns the skeleton of a new note: a single level-1 heading.
func DefaultContent() Node {
	return Node{
		Type: NodeDoc,
		Content: []Node{
			{Type: NodeHeading, Level: 1, Content: []Node{{Type: NodeText, Text: DefaultTitle}}},
		},
	}
}

// PlainText returns the text of the tree. Block children of a node are
// separated by newlines; inline leaves are concatenated.
func (n Node) PlainText() string {
	if n.Type == NodeText {
		return n.Text
	}

	var sb strings.Builder
	sb.WriteString(n.Text)
	for i, child := range n.Content {
		if i > 0 && child.Type != NodeText {
			sb.WriteString("\n")
		}
		sb.WriteString(child.PlainText())
	}
	return sb.String()
}

// Title returns the plain text of the first block of the document,
// or an empty string when the document has no blocks.
func (n Node) Title() string {
	if len(n.Content) == 0 {
		return ""
	}
	return strings.TrimSpace(n.Content[0].PlainText())
}

// ParseText builds a document from plain text. Lines starting with one to six
// '#' followed by a space become headings, every other non-blank line a paragraph.
// "#tag" at the start of a line is not a heading.
func ParseText(s string) Node {
	doc := Node{Type: NodeDoc}
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if level, text, ok := headingLine(line); ok {
			doc.Content = append(doc.Content, block(NodeHeading, level, text))
			continue
		}
		doc.Content = append(doc.Content, block(NodeParagraph, 0, line))
	}
	return doc
}

// Markdown renders the document back into the plain-text form read by ParseText.
func (n Node) Markdown() string {
	var lines []string
	for _, child := range n.Content {
		text := child.PlainText()
		if child.Type == NodeHeading {
			level := child.Level
			if level < 1 {
				level = 1
			}
			text = strings.Repeat("#", level) + " " + text
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

func headingLine(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level+1:]), true
}

func block(typ string, level int, text string) Node {
	b := Node{Type: typ, Level: level}
	if text != "" {
		b.Content = []Node{{Type: NodeText, Text: text}}
	}
	return b
}
