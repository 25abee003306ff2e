// Package analysis extracts features from recorded trajectories: spectra
// of body heights, height/velocity phase portraits, bounce events and
// settle times.
package analysis
