package typer

// Interface injects transcribed text into the focused window, as if the
// user had typed it.
type Interface interface {
	Type(text string) error
}
