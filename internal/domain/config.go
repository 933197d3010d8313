package domain

// KeyPrefix namespaces every key techsearch writes to a shared cache.
const KeyPrefix = "techsearch:"

// View is the flattened company/technology relation every search reads from.
const View = "v_company_tech"
