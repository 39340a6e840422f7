package folio

func ptr[T any](v T) *T { return &v }

// DefaultSeedData returns the example content inserted into empty
// collections by Seed. Resume has no example; it is created by uploading a
// file with kind "resume".
func DefaultSeedData() map[Model][]Record {
	return map[Model][]Record{
		ModelHero: {
			&Hero{
				Title:    "Souradeep Das",
				Subtitle: "Physics • Astrophysics • Quantum Mechanics",
				CTAs:     []string{"View Projects", "Explore Simulators", "Download Resume"},
				Quotes: []string{
					"Love is the one thing that transcends time and space.",
					"Do not go gentle into that good night.",
					"Mankind was born on Earth. It was never meant to die here.",
				},
				Featured:             []string{"black-hole", "quantum-wave"},
				BackgroundAnimations: []string{"spline-cover", "stars", "nebula", "lens"},
			},
		},
		ModelProject: {
			&Project{Title: "Quantum Wave Simulator", Description: "Interactive exploration of wave interference.", Tags: []string{"quantum", "simulation"}, Category: ptr("Quantum")},
			&Project{Title: "Black Hole Visualizer", Description: "Accretion disk and lensing demo.", Tags: []string{"gr", "relativity"}, Category: ptr("Astro")},
			&Project{Title: "Stellar Evolution Model", Description: "Lifecycle of stars.", Tags: []string{"stellar", "evolution"}, Category: ptr("Astro")},
			&Project{Title: "Cosmology Visualization", Description: "Expanding universe graphics.", Tags: []string{"cosmology"}, Category: ptr("Cosmo")},
			&Project{Title: "Particle Sandbox", Description: "Forces and collisions.", Tags: []string{"particles"}, Category: ptr("Physics")},
			&Project{Title: "Quantum ML Prototype", Description: "Hybrid quantum-classical ML.", Tags: []string{"quantum", "ml"}, Category: ptr("Quantum")},
		},
		ModelSimulator: {
			&Simulator{Name: "Quantum Wave / Double Slit", Description: "Wave interference", Parameters: []SimulatorParameter{
				param("wavelength", "Wavelength", 0.2, 5, 0.1, 1.0),
				param("slit_distance", "Slit Distance", 0.1, 2, 0.05, 0.5),
			}},
			&Simulator{Name: "Black Hole Lensing Sandbox", Description: "Simple photon ring lensing", Parameters: []SimulatorParameter{
				param("mass", "Mass", 0.1, 10, 0.1, 1.0),
			}},
			&Simulator{Name: "Harmonic Oscillator", Description: "Oscillation demo", Parameters: []SimulatorParameter{
				param("k", "k", 0.1, 10, 0.1, 1.0),
				param("m", "m", 0.1, 10, 0.1, 1.0),
			}},
			&Simulator{Name: "Particle Sandbox", Description: "Particles under gravity", Parameters: []SimulatorParameter{
				param("count", "Count", 10, 500, 10, 100),
			}},
			&Simulator{Name: "Stellar Lifecycle Demo", Description: "From protostar to supernova", Parameters: []SimulatorParameter{}},
			&Simulator{Name: "Orbital System (2/3-body)", Description: "Simplified orbits", Parameters: []SimulatorParameter{
				param("bodies", "Bodies", 2, 3, 1, 2),
			}},
		},
		ModelAbout: {
			&About{
				Bio: "Physicist exploring the cosmos, quantum phenomena, and computational models.",
				Journey: []TimelineNode{
					{Year: "2016", Title: "Began Physics Journey", Description: "Foundations in mechanics and electromagnetism"},
					{Year: "2020", Title: "Astrophysics Research", Description: "Black hole accretion studies"},
					{Year: "2024", Title: "Quantum ML", Description: "Hybrid models for quantum data"},
				},
				Images: []string{},
			},
		},
		ModelSkill: {
			&Skill{Category: "Physics", Chips: []string{"Quantum", "Relativity", "Astrophysics"}, Icon: ptr("atom"), Color: ptr("#60A5FA")},
			&Skill{Category: "Programming", Chips: []string{"Python", "JS", "NumPy", "PyTorch"}, Icon: ptr("code"), Color: ptr("#A78BFA")},
		},
		ModelContact: {
			&Contact{
				Email:    "souradeep897@gmail.com",
				Socials:  []string{"https://github.com/", "https://twitter.com/"},
				Metadata: map[string]interface{}{"location": "Earth"},
			},
		},
		ModelTheme: {
			&Theme{PrimaryColor: "#00E5FF", AccentColor: "#A78BFA", BackgroundVariant: "dark", AnimationIntensity: 4},
		},
		ModelSEO: {
			&SEO{Page: "home", Title: "Souradeep Das — Physics", Description: "Interstellar portfolio"},
			&SEO{Page: "projects", Title: "Projects", Description: "Research & simulations"},
		},
	}
}

func param(key, label string, lo, hi, step, value float64) SimulatorParameter {
	return SimulatorParameter{Key: key, Label: label, Min: &lo, Max: &hi, Step: &step, Value: &value}
}
