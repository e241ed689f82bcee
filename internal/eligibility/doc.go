// Package eligibility holds the stateless rules that shape listings, rewards and
// talent eligibility. Every function works on rows that were already fetched;
// none of them touch the database.
package eligibility
