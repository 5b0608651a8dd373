package parse

import "testing"

func TestSplitParagraphsNumbered(t *testing.T) {
	segment := "Art. 5º Todos são iguais perante a lei.\n§ 1º As normas definidoras têm aplicação imediata.\n§ 2º São objetivos fundamentais:\nI - a soberania;\nII - a cidadania."

	blocks := SplitParagraphs(segment)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}

	caput := blocks[0]
	if caput.Kind != BlockCaput || caput.Number != "" {
		t.Errorf("caput header = %+v", caput)
	}
	if caput.Content.Text != "Todos são iguais perante a lei." {
		t.Errorf("caput text = %q", caput.Content.Text)
	}

	if blocks[1].Kind != BlockParagraph || blocks[1].Number != "1" {
		t.Errorf("first paragraph header = %+v", blocks[1])
	}
	if blocks[1].Content.Text != "As normas definidoras têm aplicação imediata." {
		t.Errorf("first paragraph text = %q", blocks[1].Content.Text)
	}

	if blocks[2].Number != "2" {
		t.Errorf("second paragraph number = %q", blocks[2].Number)
	}
	if len(blocks[2].Content.Items) != 2 {
		t.Errorf("second paragraph items = %+v", blocks[2].Content.Items)
	}
}

func TestSplitParagraphsUnique(t *testing.T) {
	segment := "Art. 8º É livre a associação profissional.\nParágrafo único. Ninguém será obrigado a filiar-se."

	blocks := SplitParagraphs(segment)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[1].Number != ParagraphUnique {
		t.Errorf("number = %q, want %q", blocks[1].Number, ParagraphUnique)
	}
	if blocks[1].Content.Text != "Ninguém será obrigado a filiar-se." {
		t.Errorf("text = %q", blocks[1].Content.Text)
	}
}

func TestSplitParagraphsCaputOnly(t *testing.T) {
	blocks := SplitParagraphs("Art. 2º - Ninguém será obrigado a fazer ou deixar de fazer alguma coisa.")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Content.Text != "Ninguém será obrigado a fazer ou deixar de fazer alguma coisa." {
		t.Errorf("caput text = %q", blocks[0].Content.Text)
	}
}

func TestSplitParagraphsLetterSuffix(t *testing.T) {
	segment := "Art. 19 O serviço será prestado.\n§ 1º-A O serviço pode ser delegado."

	blocks := SplitParagraphs(segment)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[1].Number != "1" {
		t.Errorf("number = %q, want 1", blocks[1].Number)
	}
	if blocks[1].Content.Text != "O serviço pode ser delegado." {
		t.Errorf("text = %q", blocks[1].Content.Text)
	}
}

func TestSplitParagraphsOmitsEmptyCaput(t *testing.T) {
	blocks := SplitParagraphs("Art. 9º")
	if len(blocks) != 0 {
		t.Fatalf("bare article number produced blocks: %+v", blocks)
	}

	blocks = SplitParagraphs("Art. 9º\n§ 1º O prazo é de dez dias.")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want paragraph only", len(blocks))
	}
	if blocks[0].Kind != BlockParagraph || blocks[0].Number != "1" {
		t.Errorf("block = %+v, want § 1º", blocks[0])
	}
}
