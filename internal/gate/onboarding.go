package gate

// Slide is one onboarding page.
type Slide struct {
	Title       string
	Description string
}

// Slides are shown in order on first launch.
var Slides = []Slide{
	{
		Title:       "Find Your Next Opportunity",
		Description: "Connect with like-minded professionals and discover exciting opportunities in tech.",
	},
	{
		Title:       "Build Your Dream Team",
		Description: "Find co-founders, collaborators, and team members who share your vision.",
	},
	{
		Title:       "Ship Great Products",
		Description: "Turn your ideas into reality with the right team and resources.",
	},
}

// Onboarding walks the slides one forward action at a time. The action on
// the last slide completes onboarding on the gate.
type Onboarding struct {
	gate  *Gate
	index int
	done  bool
}

// NewOnboarding starts at the first slide.
func NewOnboarding(g *Gate) *Onboarding {
	return &Onboarding{gate: g}
}

// Current returns the slide on screen and its zero-based index.
func (o *Onboarding) Current() (Slide, int) {
	return Slides[o.index], o.index
}

// ButtonLabel is "Next", or "Get Started" on the last slide.
func (o *Onboarding) ButtonLabel() string {
	if o.index == len(Slides)-1 {
		return "Get Started"
	}
	return "Next"
}

// Done reports whether onboarding has been completed.
func (o *Onboarding) Done() bool {
	return o.done
}

// Next advances one slide, or completes onboarding from the last one.
// Further calls after completion do nothing.
func (o *Onboarding) Next() {
	if o.done {
		return
	}
	if o.index < len(Slides)-1 {
		o.index++
		return
	}
	o.done = true
	o.gate.CompleteOnboarding()
}
