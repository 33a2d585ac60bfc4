// Package sanitizer normalizes free-text input before validation and
// persistence. Strategies are small composable string transforms; domain
// services pick the pipeline appropriate for each field.
package sanitizer
