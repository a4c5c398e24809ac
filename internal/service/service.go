// Package service holds the user workflows built on the repositories.
//
// Services normalise and validate input, enforce uniqueness before
// writing, and translate repository results into errs.Error values with
// stable codes for the absl command.
package service
