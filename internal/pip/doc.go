// Package pip wraps "python -m pip" invocations behind an Executor so the
// installer and bootstrap sequence can be exercised without a Python
// interpreter.
package pip
