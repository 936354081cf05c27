package realtime

// Navigator turns navigation intents into events on the navigation channel.
// The view that owns the real window acts on them.
type Navigator struct {
	Pub Publisher
}

func NewNavigator(p Publisher) *Navigator { return &Navigator{Pub: p} }

func (n *Navigator) Navigate(path string) {
	Emit(n.Pub, EventNavigate, Navigation{Path: path})
}

func (n *Navigator) Redirect(url string) {
	Emit(n.Pub, EventRedirect, Navigation{URL: url})
}

func (n *Navigator) OpenPopup(name, url string, width, height int) {
	Emit(n.Pub, EventPopup, Navigation{Name: name, URL: url, Width: width, Height: height})
}
