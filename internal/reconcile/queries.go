package reconcile

const collectionFragment = `
fragment Collection on Collection {
	id
	title
	handle
}`

const productFragment = `
fragment Product on Product {
	id
	title
	handle
	tags
	collections(first: 250) {
		edges {
			node {
				...Collection
			}
		}
	}
}` + collectionFragment

const getProductQuery = `
query GetProduct($id: ID!) {
	product(id: $id) {
		...Product
	}
}` + productFragment

const listProductsQuery = `
query ListProducts($cursor: String) {
	products(first: 50, after: $cursor) {
		pageInfo {
			hasNextPage
		}
		edges {
			cursor
			node {
				...Product
			}
		}
	}
}` + productFragment

const getCollectionQuery = `
query GetCollection($id: ID!) {
	collection(id: $id) {
		...Collection
	}
}` + collectionFragment

const loginMutation = `
mutation Login($email: String!, $password: String!) {
	login: customerAccessTokenCreate(input: {email: $email, password: $password}) {
		customerAccessToken {
			accessToken
			expiresAt
		}
		customerUserErrors {
			message
			field
			code
		}
	}
}`

const logoutMutation = `
mutation Logout($customerAccessToken: String!) {
	logout: customerAccessTokenDelete(customerAccessToken: $customerAccessToken) {
		deletedAccessToken
		userErrors {
			message
			field
		}
	}
}`

const currentCustomerQuery = `
query GetCustomer($token: String!) {
	customer(customerAccessToken: $token) {
		id
		email
	}
}`

const getCheckoutQuery = `
query GetCheckout($id: ID!) {
	node(id: $id) {
		... on Checkout {
			completedAt
			lineItems(first: 1) {
				edges {
					cursor
				}
			}
		}
	}
}`

const createCheckoutMutation = `
mutation CreateCheckout($input: CheckoutCreateInput!) {
	checkoutCreate(input: $input) {
		checkout {
			id
		}
		checkoutUserErrors {
			message
			field
			code
		}
	}
}`

const addLineItemMutation = `
mutation AddLineItem($checkoutId: ID!, $lineItems: [CheckoutLineItemInput!]!) {
	add: checkoutLineItemsAdd(checkoutId: $checkoutId, lineItems: $lineItems) {
		userErrors {
			message
			field
		}
	}
}`

const updateLineItemMutation = `
mutation UpdateLineItem($checkoutId: ID!, $lineItems: [CheckoutLineItemUpdateInput!]!) {
	update: checkoutLineItemsUpdate(checkoutId: $checkoutId, lineItems: $lineItems) {
		userErrors {
			message
			field
		}
	}
}`

const removeLineItemMutation = `
mutation RemoveLineItem($checkoutId: ID!, $lineItemIds: [ID!]!) {
	remove: checkoutLineItemsRemove(checkoutId: $checkoutId, lineItemIds: $lineItemIds) {
		userErrors {
			message
			field
		}
	}
}`

const applyDiscountMutation = `
mutation ApplyDiscountCode($checkoutId: ID!, $code: String!) {
	apply: checkoutDiscountCodeApplyV2(checkoutId: $checkoutId, discountCode: $code) {
		checkoutUserErrors {
			message
			field
			code
		}
	}
}`

const removeDiscountMutation = `
mutation RemoveDiscountCode($checkoutId: ID!) {
	remove: checkoutDiscountCodeRemove(checkoutId: $checkoutId) {
		checkoutUserErrors {
			message
			field
			code
		}
	}
}`

const setNoteMutation = `
mutation SetCheckoutNote($checkoutId: ID!, $note: String) {
	set: checkoutAttributesUpdateV2(checkoutId: $checkoutId, input: {note: $note}) {
		checkoutUserErrors {
			message
			field
			code
		}
	}
}`

const setAttributesMutation = `
mutation SetCheckoutAttributes($checkoutId: ID!, $customAttributes: [AttributeInput!]) {
	set: checkoutAttributesUpdateV2(checkoutId: $checkoutId, input: {customAttributes: $customAttributes}) {
		checkoutUserErrors {
			message
			field
			code
		}
	}
}`
