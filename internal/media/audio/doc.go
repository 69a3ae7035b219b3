// Package audio picks the source audio stream the pipeline extracts for
// speech analysis.
package audio
