package export

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
)

// ContentType values for the export formats
const (
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText = "text/plain; charset=utf-8"
)

// BlockKind classifies one paragraph of an exported document
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockTitle
	BlockHeading
	BlockLabel
	BlockBullet
	BlockRule
)

// Block is one paragraph of an exported document
type Block struct {
	Kind BlockKind
	Text string
}

var (
	sectionHeading = regexp.MustCompile(`^\d+\.\s+\S`)
	dividerLine    = regexp.MustCompile(`^_{3,}$`)
)

const bulletPrefix = "• "

const bulletStyle = "ListBullet"

var ruleText = strings.Repeat("_", 50)

// Classify splits rendered minutes into blocks. The first non-empty line is
// the title unless title is given, in which case title leads the document.
func Classify(title, text string) []Block {
	var blocks []Block
	if title = strings.TrimSpace(title); title != "" {
		blocks = append(blocks, Block{Kind: BlockTitle, Text: title})
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case len(blocks) == 0:
			blocks = append(blocks, Block{Kind: BlockTitle, Text: trimmed})
		case dividerLine.MatchString(trimmed):
			blocks = append(blocks, Block{Kind: BlockRule})
		case strings.HasPrefix(trimmed, bulletPrefix):
			blocks = append(blocks, Block{Kind: BlockBullet, Text: strings.TrimSpace(strings.TrimPrefix(trimmed, bulletPrefix))})
		case sectionHeading.MatchString(trimmed):
			blocks = append(blocks, Block{Kind: BlockHeading, Text: trimmed})
		case strings.HasSuffix(trimmed, ":"):
			blocks = append(blocks, Block{Kind: BlockLabel, Text: trimmed})
		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: trimmed})
		}
	}
	return blocks
}

// Plain turns free text into a title plus one paragraph per line
func Plain(title, text string) []Block {
	var blocks []Block
	if title = strings.TrimSpace(title); title != "" {
		blocks = append(blocks, Block{Kind: BlockTitle, Text: title})
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: line})
		}
	}
	return blocks
}

// WriteDOCX writes rendered minutes as a word-processor document
func WriteDOCX(w io.Writer, title, text string) error {
	return WriteBlocks(w, title, Classify(title, text))
}

// BuildDOCX returns rendered minutes as document bytes
func BuildDOCX(title, text string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, title, text); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPlainDOCX returns free text (narrative or brief summaries) as document bytes
func BuildPlainDOCX(title, text string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteBlocks(&buf, title, Plain(title, text)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteBlocks lays blocks out as a word-processor document. title leads the
// document when blocks do not already start with a title.
func WriteBlocks(w io.Writer, title string, blocks []Block) error {
	if len(blocks) == 0 || blocks[0].Kind != BlockTitle {
		if title = strings.TrimSpace(title); title != "" {
			blocks = append([]Block{{Kind: BlockTitle, Text: title}}, blocks...)
		}
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	for _, blk := range blocks {
		switch blk.Kind {
		case BlockTitle:
			if _, err := doc.AddHeading(blk.Text, 0); err != nil {
				return fmt.Errorf("failed to add title: %w", err)
			}
		case BlockHeading:
			if _, err := doc.AddHeading(blk.Text, 2); err != nil {
				return fmt.Errorf("failed to add heading: %w", err)
			}
		case BlockLabel:
			doc.AddEmptyParagraph().AddText(blk.Text).Bold(true)
		case BlockBullet:
			doc.AddParagraph(blk.Text).Style(bulletStyle)
		case BlockRule:
			doc.AddParagraph(ruleText)
		default:
			doc.AddParagraph(blk.Text)
		}
	}

	if err := doc.Write(w); err != nil {
		return fmt.Errorf("failed to finish document: %w", err)
	}
	return nil
}
