// Package directory provides user directories for tokengate.
//
// [Memory] keeps accounts in process and suits tests and the development
// server. [SQL] reads the users table created by the migrations package
// through database/sql; pair it with the pgx stdlib driver.
//
// Both implement [tokengate.Directory]: a missing account is reported as
// [tokengate.ErrIdentityNotFound], every other failure wraps
// [tokengate.ErrUnavailable].
package directory
