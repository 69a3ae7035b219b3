// Package textutil turns job identifiers and names into safe path segments.
package textutil
