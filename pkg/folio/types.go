package folio

// Record is a validated instance of one content type.
//
// String fields tagged present must appear in the source document but may
// be empty. Pointer fields tagged required must appear and be non-null.
type Record interface {
	Model() Model
	// normalize replaces absent lists and maps with their defaults so that
	// records never render null collections.
	normalize()
}

// Theme defaults
const (
	DefaultPrimaryColor       = "#6EE7F9"
	DefaultAccentColor        = "#A78BFA"
	DefaultBackgroundVariant  = "dark"
	DefaultAnimationIntensity = 3
)

// Hero is the landing banner.
type Hero struct {
	Title                string   `json:"title" validate:"present"`
	Subtitle             string   `json:"subtitle" validate:"present"`
	CTAs                 []string `json:"ctas"`
	Quotes               []string `json:"quotes"`
	Featured             []string `json:"featured"`
	BackgroundAnimations []string `json:"background_animations"`
}

func defaultCTAs() []string {
	return []string{"View Projects", "Explore Simulators"}
}

func defaultBackgroundAnimations() []string {
	return []string{"spline-cover", "stars", "nebula"}
}

// NewHero returns a Hero with default lists.
func NewHero() *Hero {
	return &Hero{
		CTAs:                 defaultCTAs(),
		Quotes:               []string{},
		Featured:             []string{},
		BackgroundAnimations: defaultBackgroundAnimations(),
	}
}

func (*Hero) Model() Model { return ModelHero }

func (h *Hero) normalize() {
	if h.CTAs == nil {
		h.CTAs = defaultCTAs()
	}
	if h.Quotes == nil {
		h.Quotes = []string{}
	}
	if h.Featured == nil {
		h.Featured = []string{}
	}
	if h.BackgroundAnimations == nil {
		h.BackgroundAnimations = defaultBackgroundAnimations()
	}
}

// Project is a portfolio entry.
type Project struct {
	Title        string   `json:"title" validate:"present"`
	Description  string   `json:"description" validate:"present"`
	Tags         []string `json:"tags"`
	CoverImage   *string  `json:"cover_image" validate:"omitempty,weburl"`
	DemoLink     *string  `json:"demo_link" validate:"omitempty,weburl"`
	ModalContent *string  `json:"modal_content"`
	Category     *string  `json:"category"`
}

func NewProject() *Project {
	return &Project{Tags: []string{}}
}

func (*Project) Model() Model { return ModelProject }

func (p *Project) normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

// SimulatorParameter is one tunable input of a simulator. Presence of every
// numeric field is required; the range is not enforced.
type SimulatorParameter struct {
	Key   string   `json:"key" validate:"present"`
	Label string   `json:"label" validate:"present"`
	Min   *float64 `json:"min" validate:"required"`
	Max   *float64 `json:"max" validate:"required"`
	Step  *float64 `json:"step" validate:"required"`
	Value *float64 `json:"value" validate:"required"`
}

// Simulator describes an interactive physics demo.
type Simulator struct {
	Name        string               `json:"name" validate:"present"`
	Description string               `json:"description" validate:"present"`
	Parameters  []SimulatorParameter `json:"parameters" validate:"dive"`
	DemoAsset   *string              `json:"demo_asset"`
}

func NewSimulator() *Simulator {
	return &Simulator{Parameters: []SimulatorParameter{}}
}

func (*Simulator) Model() Model { return ModelSimulator }

func (s *Simulator) normalize() {
	if s.Parameters == nil {
		s.Parameters = []SimulatorParameter{}
	}
}

// TimelineNode is one entry of the About journey.
type TimelineNode struct {
	Year        string  `json:"year" validate:"present"`
	Title       string  `json:"title" validate:"present"`
	Description string  `json:"description" validate:"present"`
	Image       *string `json:"image" validate:"omitempty,weburl"`
}

type About struct {
	Bio     string         `json:"bio" validate:"present"`
	Journey []TimelineNode `json:"journey" validate:"dive"`
	Images  []string       `json:"images" validate:"dive,weburl"`
}

func NewAbout() *About {
	return &About{Journey: []TimelineNode{}, Images: []string{}}
}

func (*About) Model() Model { return ModelAbout }

func (a *About) normalize() {
	if a.Journey == nil {
		a.Journey = []TimelineNode{}
	}
	if a.Images == nil {
		a.Images = []string{}
	}
}

type Skill struct {
	Category string   `json:"category" validate:"present"`
	Chips    []string `json:"chips"`
	Icon     *string  `json:"icon"`
	Color    *string  `json:"color"`
}

func NewSkill() *Skill {
	return &Skill{Chips: []string{}}
}

func (*Skill) Model() Model { return ModelSkill }

func (s *Skill) normalize() {
	if s.Chips == nil {
		s.Chips = []string{}
	}
}

// Resume points at the downloadable CV, either an external URL or an
// uploaded file under /uploads/.
type Resume struct {
	URL string `json:"url" validate:"present,assetref"`
}

func (*Resume) Model() Model { return ModelResume }

func (*Resume) normalize() {}

type Contact struct {
	Email    string                 `json:"email" validate:"present"`
	Socials  []string               `json:"socials"`
	Metadata map[string]interface{} `json:"metadata"`
}

func NewContact() *Contact {
	return &Contact{Socials: []string{}, Metadata: map[string]interface{}{}}
}

func (*Contact) Model() Model { return ModelContact }

func (c *Contact) normalize() {
	if c.Socials == nil {
		c.Socials = []string{}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]interface{}{}
	}
}

type Theme struct {
	PrimaryColor       string `json:"primary_color"`
	AccentColor        string `json:"accent_color"`
	BackgroundVariant  string `json:"background_variant"`
	AnimationIntensity int    `json:"animation_intensity" validate:"gte=0,lte=5"`
}

// NewTheme returns the default theme.
func NewTheme() *Theme {
	return &Theme{
		PrimaryColor:       DefaultPrimaryColor,
		AccentColor:        DefaultAccentColor,
		BackgroundVariant:  DefaultBackgroundVariant,
		AnimationIntensity: DefaultAnimationIntensity,
	}
}

func (*Theme) Model() Model { return ModelTheme }

func (*Theme) normalize() {}

// SEO holds per-page metadata. Page is a free-form route key and is not unique.
type SEO struct {
	Page        string  `json:"page" validate:"present"`
	Title       string  `json:"title" validate:"present"`
	Description string  `json:"description" validate:"present"`
	OGImage     *string `json:"og_image" validate:"omitempty,weburl"`
}

func (*SEO) Model() Model { return ModelSEO }

func (*SEO) normalize() {}
