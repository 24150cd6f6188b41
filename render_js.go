package webtty

func defaultRender() RenderFunc { return RenderApp }

// wrapTree passes trees through. The sizing box is a tea.Model and is not
// available in js builds.
func wrapTree(tree Tree, stdout *OutputStream) Tree {
	return tree
}
