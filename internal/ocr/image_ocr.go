package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adelaunay/paperbase/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	txt, warn, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return Result{SourceType: constants.IMAGE, Warnings: warn}, err
	}
	txt = Normalize(txt)

	tokens, tsvWarn, tsvErr := e.tesseractTokens(ctx, path)
	if tsvErr != nil {
		warn = append(warn, tsvErr.Error())
	}
	warn = append(warn, tsvWarn...)

	conf := aggregateConfidence(tokens, txt)

	return Result{
		Text:       txt,
		Tokens:     tokens,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Confidence: conf,
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := e.tesseractArgs(path)

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

// tesseractTokens runs tesseract in TSV mode and returns the recognized words
// with their per-word confidences (0..100).
func (e *Extractor) tesseractTokens(ctx context.Context, path string) ([]Token, []string, error) {
	args := append(e.tesseractArgs(path), "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return nil, []string{string(errb)}, fmt.Errorf("tesseract TSV: %w", err)
	}
	return ParseTSVTokens(string(out)), nil, nil
}

func (e *Extractor) tesseractArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

// ParseTSVTokens extracts word tokens from tesseract TSV output. The conf
// column is the last; -1 marks structural rows (pages, blocks, lines).
func ParseTSVTokens(tsv string) []Token {
	lines := strings.Split(tsv, "\n")
	var tokens []Token
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue // malformed row
		}
		confStr := cols[10] // conf column; word text is the last column
		word := strings.TrimSpace(cols[11])
		if word == "" || confStr == "" || confStr == "-1" {
			continue
		}
		v, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			continue
		}
		tokens = append(tokens, Token{Text: word, Confidence: float32(v)})
	}
	return tokens
}
