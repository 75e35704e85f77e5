package ocr

import "testing"

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t600\t800\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t80\t20\t96.5\tFACTURE\n" +
	"5\t1\t1\t1\t1\t2\t100\t10\t40\t20\t88\tEDF\n" +
	"5\t1\t1\t1\t2\t1\t10\t40\t60\t20\t-1\t\n" +
	"5\t1\t1\t1\t2\t2\t80\t40\t60\t20\t42\t \n"

func TestParseTSVTokens(t *testing.T) {
	tokens := ParseTSVTokens(sampleTSV)

	if len(tokens) != 2 {
		t.Fatalf("tokens = %d, want 2 (structural and blank rows skipped)", len(tokens))
	}
	if tokens[0].Text != "FACTURE" || tokens[0].Confidence != 96.5 {
		t.Errorf("token[0] = %+v", tokens[0])
	}
	if tokens[1].Text != "EDF" || tokens[1].Confidence != 88 {
		t.Errorf("token[1] = %+v", tokens[1])
	}
}

func TestParseTSVTokensMalformedLines(t *testing.T) {
	tokens := ParseTSVTokens("header\nshort\tline\n\n")
	if len(tokens) != 0 {
		t.Errorf("tokens = %v, want none", tokens)
	}
}
