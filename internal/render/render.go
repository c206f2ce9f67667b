package render

// Row is one ranked entry on the board, already name-resolved.
type Row struct {
	Name  string
	Score int64
}

// Renderer turns the two ranked columns (top gifters left, top likers right)
// into encoded image bytes. An empty board is still a valid render.
type Renderer interface {
	Render(left, right []Row) ([]byte, error)
}
